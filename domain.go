package main

// Message is the unit of the websocket protocol in both directions. Using a
// map keeps the action dispatch tables generic over message shapes.
type Message map[string]interface{}

type Role int

const (
	Performer Role = iota
	Host
)

// RoomState values are part of the wire protocol, so they are strings.
type RoomState string

const (
	StateLobby       RoomState = "lobby"
	StatePerformance RoomState = "performance"
	StateEnded       RoomState = "ended"
)

type BeatType string

const (
	BeatDialogue  BeatType = "dialogue"
	BeatDirection BeatType = "direction"
)

// Beat is one unit of script content: a line of dialogue attributed to a
// character, or a stage direction with no character.
type Beat struct {
	Type      BeatType `json:"type"`
	Character string   `json:"character,omitempty"`
	Text      string   `json:"text"`
}

type Character struct {
	Name       string `json:"name"`
	Difficulty string `json:"difficulty,omitempty"`
	LineCount  int    `json:"lineCount"` // derived: dialogue beats attributed to this character
}

// Script is the prepared, immutable in-memory form shared by every room that
// performs it.
type Script struct {
	Title       string      `json:"title"`
	Author      string      `json:"author,omitempty"`
	Description string      `json:"description,omitempty"`
	Characters  []Character `json:"characters"`
	Beats       []Beat      `json:"beats"`
}

// ScriptRow is the catalogue's storage shape. Characters and Beats are JSON
// columns; the prepared Script is decoded from them.
type ScriptRow struct {
	Id          int64  `json:"-"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Characters  string `json:"-"`
	Beats       string `json:"-"`
}

// Player is one participant. Id is a server-generated uuid held in the cookie
// session so the websocket handler can recognize the connection; Name is the
// display name and is not required to be unique.
type Player struct {
	Id   string `json:"-"`
	Name string `json:"name"`
	Role Role   `json:"-"`
}

// Room is one hosted session. All fields are guarded by the RoomService
// mutex; nothing outside the service holds a mutable reference.
type Room struct {
	Code        string
	Host        *Player
	Players     []*Player
	Script      *Script
	Assignments map[string]string // character name -> display name, "" when unassigned
	State       RoomState
	CurrentBeat int

	conns map[string]chan Message // player id -> outbound channel
}
