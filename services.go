package main

import (
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/nu7hatch/gouuid"
)

// codeAlphabet deliberately omits 0/O, 1/I and other glyphs that are easy to
// misread when a host shouts the code across a room.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 4

// defaultDirectionDelay is how long a stage direction stays on screen before
// the room advances on its own.
const defaultDirectionDelay = 4 * time.Second

var (
	ErrNameRequired       = errors.New("display name is required")
	ErrUnknownRoom        = errors.New("unknown room code")
	ErrPerformanceStarted = errors.New("performance already started")
	ErrNotMember          = errors.New("not a member of this room")
	ErrAlreadyConnected   = errors.New("already connected to this room")
)

// RoomInfo is the copied-out view of a room returned to the HTTP layer, so
// handlers never touch live room state outside the service lock.
type RoomInfo struct {
	Code        string
	Player      *Player
	Script      *Script
	Assignments map[string]string
}

type RoomService interface {
	CreateRoom(hostName string, scriptIndex int) (*RoomInfo, error)
	JoinRoom(code, name string) (*RoomInfo, error)
	Get(code string) *Room
	Remove(code string)

	Attach(code, playerId string) (*Player, chan Message, error)
	Disconnect(code, playerId string)

	Claim(code, playerId, character string)
	ForceAssign(code, playerId, character, target string)
	Boot(code, playerId, name string)
	Start(code, playerId string)
	BeatDone(code, playerId string)
	Ping(code, playerId string)
}

// RoomServiceImpl owns every live room. One mutex serializes all mutations,
// so each operation runs to completion before the next one starts; the
// auto-advance timers re-acquire the lock and re-validate before touching
// anything.
type RoomServiceImpl struct {
	mu             sync.Mutex
	rooms          map[string]*Room
	catalogue      *Catalogue
	directionDelay time.Duration
}

func NewRoomService(catalogue *Catalogue) *RoomServiceImpl {
	return &RoomServiceImpl{
		rooms:          map[string]*Room{},
		catalogue:      catalogue,
		directionDelay: defaultDirectionDelay,
	}
}

func NewPlayer(name string, role Role) (*Player, error) {
	u, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &Player{Id: u.String(), Name: name, Role: role}, nil
}

func (s *RoomServiceImpl) CreateRoom(hostName string, scriptIndex int) (*RoomInfo, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, ErrNameRequired
	}

	host, err := NewPlayer(hostName, Host)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	script := s.catalogue.Get(scriptIndex)
	room := NewRoom(s.newCodeLocked(), host, script)
	s.rooms[room.Code] = room
	log.Printf("Room %v created by %v for script %q", room.Code, hostName, script.Title)

	return &RoomInfo{Code: room.Code, Player: host, Script: script, Assignments: room.assignmentsCopy()}, nil
}

// newCodeLocked regenerates on collision rather than failing; with a 32^4
// space and short-lived rooms collisions are rare but possible.
func (s *RoomServiceImpl) newCodeLocked() string {
	for {
		code := make([]byte, codeLength)
		for i := range code {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
			if err != nil {
				panic(err) // crypto/rand failure is not survivable
			}
			code[i] = codeAlphabet[n.Int64()]
		}
		if _, taken := s.rooms[string(code)]; !taken {
			return string(code)
		}
	}
}

func (s *RoomServiceImpl) JoinRoom(code, name string) (*RoomInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[strings.ToUpper(code)]
	if room == nil {
		return nil, ErrUnknownRoom
	}
	if room.State != StateLobby {
		return nil, ErrPerformanceStarted
	}

	player, err := NewPlayer(name, Performer)
	if err != nil {
		return nil, err
	}
	room.Players = append(room.Players, player)
	s.broadcastLocked(room, room.playersMessage())
	log.Printf("%v joined room %v", name, room.Code)

	return &RoomInfo{Code: room.Code, Player: player, Script: room.Script, Assignments: room.assignmentsCopy()}, nil
}

func (s *RoomServiceImpl) Get(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[strings.ToUpper(code)]
}

// Remove tears a room down without notification. Idempotent.
func (s *RoomServiceImpl) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room := s.rooms[strings.ToUpper(code)]; room != nil {
		s.removeLocked(room)
	}
}

func (s *RoomServiceImpl) removeLocked(room *Room) {
	for id, ch := range room.conns {
		delete(room.conns, id)
		close(ch)
	}
	delete(s.rooms, room.Code)
}

// Attach registers a live connection for a participant and returns its
// outbound channel, pre-loaded with the current snapshots.
func (s *RoomServiceImpl) Attach(code, playerId string) (*Player, chan Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[strings.ToUpper(code)]
	if room == nil {
		return nil, nil, ErrUnknownRoom
	}
	player := room.participant(playerId)
	if player == nil {
		return nil, nil, ErrNotMember
	}

	// One socket per participant: a second Attach for the same identity
	// would otherwise race the first one's disconnect teardown.
	if _, ok := room.conns[playerId]; ok {
		return nil, nil, ErrAlreadyConnected
	}
	ch := make(chan Message, 16)
	room.conns[playerId] = ch

	trySend(ch, room.playersMessage())
	trySend(ch, room.assignmentsMessage())
	if room.State == StatePerformance {
		trySend(ch, room.beatMessage())
	}
	return player, ch, nil
}

// Disconnect handles a dropped connection. A host disconnect tears the whole
// room down immediately; there is no successor host and no grace period. A
// player disconnect releases their characters but does not re-evaluate the
// current beat, so a performance can be left waiting on a vanished owner
// until the host forces the advance.
func (s *RoomServiceImpl) Disconnect(code, playerId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[strings.ToUpper(code)]
	if room == nil {
		return
	}

	if room.Host.Id == playerId {
		for id, ch := range room.conns {
			if id != playerId {
				trySend(ch, Message{"type": "host_left"})
			}
		}
		s.removeLocked(room)
		log.Printf("Host left, room %v closed", room.Code)
		return
	}

	player, i := room.playerById(playerId)
	if player == nil {
		// Already booted; just drop any leftover connection.
		if ch, ok := room.conns[playerId]; ok {
			delete(room.conns, playerId)
			close(ch)
		}
		return
	}

	room.Players = append(room.Players[:i], room.Players[i+1:]...)
	room.releaseCharacters(player.Name)
	if ch, ok := room.conns[playerId]; ok {
		delete(room.conns, playerId)
		close(ch)
	}
	s.broadcastLocked(room, room.playersMessage())
	s.broadcastLocked(room, room.assignmentsMessage())
	log.Printf("%v left room %v", player.Name, room.Code)
}

// Claim toggles a character for the caller. Lobby only; contention and
// unknown characters are silent no-ops.
func (s *RoomServiceImpl) Claim(code, playerId, character string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[strings.ToUpper(code)]
	if room == nil || room.State != StateLobby {
		return
	}
	player := room.participant(playerId)
	if player == nil {
		return
	}
	if room.claim(player.Name, character) {
		s.broadcastLocked(room, room.assignmentsMessage())
	}
}

// ForceAssign is the host's unconditional set: no toggle, and it may take a
// character away from a player without their consent. An empty target clears
// the assignment. Mid-performance the current beat is re-broadcast because
// the active speaker may have changed.
func (s *RoomServiceImpl) ForceAssign(code, playerId, character, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[strings.ToUpper(code)]
	if room == nil || room.State == StateEnded {
		return
	}
	caller := room.participant(playerId)
	if caller == nil || caller.Role != Host {
		return // silent, like all authorization failures
	}
	if _, known := room.Assignments[character]; !known {
		return
	}
	if target != "" && !room.isParticipantName(target) {
		return
	}

	room.Assignments[character] = target
	s.broadcastLocked(room, room.assignmentsMessage())
	if room.State == StatePerformance {
		s.emitBeatLocked(room)
	}
}

// Boot removes a player at the host's request. If the booted player owns the
// character speaking the active beat, that character is handed to the host so
// the performance can never be stuck waiting on a line with no owner; every
// other character they held is released. The kicked notice goes only to the
// displaced connection.
func (s *RoomServiceImpl) Boot(code, playerId, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[strings.ToUpper(code)]
	if room == nil {
		return
	}
	caller := room.participant(playerId)
	if caller == nil || caller.Role != Host {
		return
	}
	player, i := room.playerByName(name)
	if player == nil {
		return
	}

	var activeCharacter string
	if room.State == StatePerformance {
		if beat := room.Script.Beats[room.CurrentBeat]; beat.Type == BeatDialogue && room.Assignments[beat.Character] == player.Name {
			activeCharacter = beat.Character
		}
	}
	room.releaseCharacters(player.Name)
	if activeCharacter != "" {
		room.Assignments[activeCharacter] = room.Host.Name
	}

	room.Players = append(room.Players[:i], room.Players[i+1:]...)
	if ch, ok := room.conns[player.Id]; ok {
		trySend(ch, Message{"type": "kicked", "reason": "removed by host"})
		delete(room.conns, player.Id)
		close(ch)
	}

	s.broadcastLocked(room, room.playersMessage())
	s.broadcastLocked(room, room.assignmentsMessage())
	if room.State == StatePerformance {
		s.emitBeatLocked(room)
	}
	log.Printf("%v booted from room %v", player.Name, room.Code)
}

// Start begins the performance. Host only, lobby only, and every character
// needs an owner first; a partial cast gets an addressed error, not a
// broadcast.
func (s *RoomServiceImpl) Start(code, playerId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[strings.ToUpper(code)]
	if room == nil || room.State != StateLobby {
		return
	}
	caller := room.participant(playerId)
	if caller == nil || caller.Role != Host {
		return
	}
	if !room.castComplete() {
		if ch, ok := room.conns[playerId]; ok {
			trySend(ch, Message{"type": "error", "message": "every character needs a performer before starting"})
		}
		return
	}

	room.State = StatePerformance
	room.CurrentBeat = 0
	s.broadcastLocked(room, Message{"type": "started", "title": room.Script.Title})
	s.emitBeatLocked(room)
	log.Printf("Room %v started performing %q", room.Code, room.Script.Title)
}

// BeatDone advances past the current dialogue beat. Only its assignee or the
// host may advance; direction beats advance on the timer, never by request.
func (s *RoomServiceImpl) BeatDone(code, playerId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[strings.ToUpper(code)]
	if room == nil || room.State != StatePerformance {
		return
	}
	caller := room.participant(playerId)
	if caller == nil {
		return
	}
	beat := room.Script.Beats[room.CurrentBeat]
	if beat.Type != BeatDialogue {
		return
	}
	if caller.Role != Host && room.Assignments[beat.Character] != caller.Name {
		return
	}
	s.advanceLocked(room)
}

func (s *RoomServiceImpl) Ping(code, playerId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[strings.ToUpper(code)]
	if room == nil {
		return
	}
	if ch, ok := room.conns[playerId]; ok {
		trySend(ch, Message{"type": "pong"})
	}
}

// advanceLocked moves the playhead. Past the last beat the room ends, once;
// the ended state is terminal and the room lingers only until the host
// disconnects.
func (s *RoomServiceImpl) advanceLocked(room *Room) {
	if room.CurrentBeat+1 >= len(room.Script.Beats) {
		room.State = StateEnded
		s.broadcastLocked(room, Message{"type": "ended"})
		log.Printf("Room %v finished %q", room.Code, room.Script.Title)
		return
	}
	room.CurrentBeat++
	s.emitBeatLocked(room)
}

// emitBeatLocked broadcasts the current beat and, for stage directions,
// schedules the auto-advance. The timer captures the beat index and
// re-validates room existence, state and index when it fires, so a timer
// made stale by a boot, a force-assign advance or a teardown is a no-op.
func (s *RoomServiceImpl) emitBeatLocked(room *Room) {
	s.broadcastLocked(room, room.beatMessage())
	if room.Script.Beats[room.CurrentBeat].Type == BeatDirection {
		code, index := room.Code, room.CurrentBeat
		time.AfterFunc(s.directionDelay, func() { s.autoAdvance(code, index) })
	}
}

func (s *RoomServiceImpl) autoAdvance(code string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.rooms[code]
	if room == nil || room.State != StatePerformance || room.CurrentBeat != index {
		return
	}
	s.advanceLocked(room)
}

func (s *RoomServiceImpl) broadcastLocked(room *Room, msg Message) {
	for _, ch := range room.conns {
		trySend(ch, msg)
	}
}

// trySend never blocks; a client that cannot drain its channel loses
// messages rather than stalling the room.
func trySend(ch chan Message, msg Message) {
	select {
	case ch <- msg:
	default:
	}
}
