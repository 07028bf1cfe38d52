package main

import (
	"html/template"
	"net/http"

	"github.com/martini-contrib/render"
	"github.com/martini-contrib/sessions"
)

type MockRenderer struct {
	status int
	data   interface{}
}

func (m *MockRenderer) JSON(status int, v interface{}) {
	m.status = status
	m.data = v
}
func (m *MockRenderer) HTML(status int, name string, v interface{}, htmlOpt ...render.HTMLOptions) {
}
func (m *MockRenderer) XML(status int, v interface{})  {}
func (m *MockRenderer) Data(status int, v []byte)      {}
func (m *MockRenderer) Text(status int, v string)      {}
func (m *MockRenderer) Error(status int)               {}
func (m *MockRenderer) Status(status int)              {}
func (m *MockRenderer) Redirect(location string, status ...int) {
}
func (m *MockRenderer) Template() *template.Template {
	return nil
}
func (m *MockRenderer) Header() http.Header {
	return http.Header{}
}

type MockSession struct {
	data map[interface{}]interface{}
}

func NewMockSession() *MockSession {
	return &MockSession{data: map[interface{}]interface{}{}}
}

func (m *MockSession) Get(key interface{}) interface{} {
	return m.data[key]
}

func (m *MockSession) Set(key interface{}, val interface{}) {
	m.data[key] = val
}

func (m *MockSession) Delete(key interface{}) {
	delete(m.data, key)
}

func (m *MockSession) Clear() {
	m.data = map[interface{}]interface{}{}
}

func (m *MockSession) AddFlash(value interface{}, vars ...string) {
}

func (m *MockSession) Flashes(vars ...string) []interface{} {
	return nil
}

func (m *MockSession) Options(sessions.Options) {
}

// MockRoomService returns canned results and records the calls the handlers
// make, so handler tests never need live rooms.
type MockRoomService struct {
	Info  *RoomInfo
	Room  *Room
	Error error

	Created []string
	Joined  []string
}

func (m *MockRoomService) CreateRoom(hostName string, scriptIndex int) (*RoomInfo, error) {
	m.Created = append(m.Created, hostName)
	return m.Info, m.Error
}

func (m *MockRoomService) JoinRoom(code, name string) (*RoomInfo, error) {
	m.Joined = append(m.Joined, code)
	return m.Info, m.Error
}

func (m *MockRoomService) Get(code string) *Room { return m.Room }
func (m *MockRoomService) Remove(code string)    {}

func (m *MockRoomService) Attach(code, playerId string) (*Player, chan Message, error) {
	if m.Error != nil {
		return nil, nil, m.Error
	}
	return m.Info.Player, make(chan Message, 16), nil
}

func (m *MockRoomService) Disconnect(code, playerId string)                       {}
func (m *MockRoomService) Claim(code, playerId, character string)                 {}
func (m *MockRoomService) ForceAssign(code, playerId, character, target string)   {}
func (m *MockRoomService) Boot(code, playerId, name string)                       {}
func (m *MockRoomService) Start(code, playerId string)                            {}
func (m *MockRoomService) BeatDone(code, playerId string)                         {}
func (m *MockRoomService) Ping(code, playerId string)                             {}
