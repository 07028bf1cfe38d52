package main

import (
	"testing"
)

func Test_PlayersMessage_HostFirst(t *testing.T) {
	room := NewRoom("ABCD", &Player{Id: "h", Name: "Amy", Role: Host}, testScript())
	room.Players = append(room.Players, &Player{Id: "p1", Name: "Ben"}, &Player{Id: "p2", Name: "Cal"})

	msg := room.playersMessage()
	list := msg["players"].([]Message)
	if len(list) != 3 {
		t.Fatalf("Got %v entries, want 3", len(list))
	}
	if list[0]["name"] != "Amy" || list[0]["host"] != true {
		t.Errorf("Host not first and flagged: %#v", list[0])
	}
	if list[1]["name"] != "Ben" || list[2]["name"] != "Cal" {
		t.Errorf("Players out of join order: %#v", list)
	}
}

func Test_AssignmentsMessage_CastComplete(t *testing.T) {
	room := NewRoom("ABCD", &Player{Id: "h", Name: "Amy", Role: Host}, testScript())

	if room.assignmentsMessage()["cast_complete"] != false {
		t.Error("Empty cast reported complete")
	}
	room.Assignments["Lead"] = "Amy"
	if room.assignmentsMessage()["cast_complete"] != false {
		t.Error("Partial cast reported complete")
	}
	room.Assignments["Sidekick"] = "Ben"
	if room.assignmentsMessage()["cast_complete"] != true {
		t.Error("Full cast reported incomplete")
	}
}

func Test_BeatMessage_ActivePlayer(t *testing.T) {
	room := NewRoom("ABCD", &Player{Id: "h", Name: "Amy", Role: Host}, testScript())
	room.Assignments["Lead"] = "Amy"

	msg := room.beatMessage()
	if msg["active"] != "Amy" {
		t.Errorf("Dialogue beat active %v, want Amy", msg["active"])
	}

	room.CurrentBeat = 1 // stage direction
	msg = room.beatMessage()
	if msg["active"] != nil {
		t.Errorf("Direction beat active %v, want nil", msg["active"])
	}
}
