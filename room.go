package main

// NewRoom builds a lobby-state room for a script. The assignment keys are
// fixed here from the script's character list and never change afterwards.
func NewRoom(code string, host *Player, script *Script) *Room {
	assignments := make(map[string]string, len(script.Characters))
	for _, c := range script.Characters {
		assignments[c.Name] = ""
	}
	return &Room{
		Code:        code,
		Host:        host,
		Script:      script,
		Assignments: assignments,
		State:       StateLobby,
		conns:       map[string]chan Message{},
	}
}

// participant finds the host or a player by id.
func (room *Room) participant(id string) *Player {
	if room.Host.Id == id {
		return room.Host
	}
	p, _ := room.playerById(id)
	return p
}

func (room *Room) playerById(id string) (*Player, int) {
	for i, p := range room.Players {
		if p.Id == id {
			return p, i
		}
	}
	return nil, -1
}

// playerByName returns the first player with the given display name. Names
// are not unique, so boot and assignment match on first-joined order.
func (room *Room) playerByName(name string) (*Player, int) {
	for i, p := range room.Players {
		if p.Name == name {
			return p, i
		}
	}
	return nil, -1
}

func (room *Room) isParticipantName(name string) bool {
	if room.Host.Name == name {
		return true
	}
	p, _ := room.playerByName(name)
	return p != nil
}

// claim implements the toggle contention policy: self-service unclaim is
// always allowed, unowned characters go to the caller, and claims on a
// character someone else owns are dropped. Reports whether anything changed.
func (room *Room) claim(name, character string) bool {
	owner, ok := room.Assignments[character]
	if !ok {
		return false
	}
	switch owner {
	case name:
		room.Assignments[character] = ""
	case "":
		room.Assignments[character] = name
	default:
		return false
	}
	return true
}

// releaseCharacters clears every assignment owned by name.
func (room *Room) releaseCharacters(name string) {
	for character, owner := range room.Assignments {
		if owner == name {
			room.Assignments[character] = ""
		}
	}
}

func (room *Room) castComplete() bool {
	for _, owner := range room.Assignments {
		if owner == "" {
			return false
		}
	}
	return true
}

func (room *Room) assignmentsCopy() map[string]string {
	out := make(map[string]string, len(room.Assignments))
	for character, owner := range room.Assignments {
		out[character] = owner
	}
	return out
}

// activePlayer is the assignee of the current beat's character, or "" for
// direction beats and unassigned characters.
func (room *Room) activePlayer() string {
	beat := room.Script.Beats[room.CurrentBeat]
	if beat.Type != BeatDialogue {
		return ""
	}
	return room.Assignments[beat.Character]
}

func (room *Room) playersMessage() Message {
	list := make([]Message, 0, len(room.Players)+1)
	list = append(list, Message{"name": room.Host.Name, "host": true})
	for _, p := range room.Players {
		list = append(list, Message{"name": p.Name, "host": false})
	}
	return Message{"type": "players", "players": list}
}

func (room *Room) assignmentsMessage() Message {
	return Message{
		"type":          "assignments",
		"assignments":   room.assignmentsCopy(),
		"cast_complete": room.castComplete(),
	}
}

func (room *Room) beatMessage() Message {
	var active interface{}
	if name := room.activePlayer(); name != "" {
		active = name
	}
	return Message{
		"type":   "beat",
		"index":  room.CurrentBeat,
		"total":  len(room.Script.Beats),
		"beat":   room.Script.Beats[room.CurrentBeat],
		"active": active,
	}
}
