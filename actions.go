package main

import "log"

type Action func(msg Message, code string, player *Player, svc RoomService, log *log.Logger)

// To extend the protocol, add a message type here with its action. The
// gateway picks the table by the caller's server-side role, so a client
// claiming to be the host still only reaches PlayerActions. Privileged
// actions that fail authorization inside the service are dropped without a
// reply on purpose.
var HostActions = map[string]Action{}
var PlayerActions = map[string]Action{}

func init() {
	PlayerActions["claim"] = claimAction
	PlayerActions["beat_done"] = beatDoneAction
	PlayerActions["ping"] = pingAction

	HostActions["claim"] = claimAction
	HostActions["beat_done"] = beatDoneAction
	HostActions["ping"] = pingAction
	HostActions["assign"] = assignAction
	HostActions["boot"] = bootAction
	HostActions["start"] = startAction
}

func claimAction(msg Message, code string, player *Player, svc RoomService, log *log.Logger) {
	character, _ := msg["character"].(string)
	svc.Claim(code, player.Id, character)
}

func assignAction(msg Message, code string, player *Player, svc RoomService, log *log.Logger) {
	character, _ := msg["character"].(string)
	target, _ := msg["target"].(string) // absent or null means clear
	svc.ForceAssign(code, player.Id, character, target)
}

func bootAction(msg Message, code string, player *Player, svc RoomService, log *log.Logger) {
	name, _ := msg["name"].(string)
	svc.Boot(code, player.Id, name)
}

func startAction(msg Message, code string, player *Player, svc RoomService, log *log.Logger) {
	svc.Start(code, player.Id)
}

func beatDoneAction(msg Message, code string, player *Player, svc RoomService, log *log.Logger) {
	svc.BeatDone(code, player.Id)
}

// pingAction answers over the same message stream so liveness works even
// through proxies that drop idle websocket frames.
func pingAction(msg Message, code string, player *Player, svc RoomService, log *log.Logger) {
	svc.Ping(code, player.Id)
}
