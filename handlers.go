package main

import (
	"log"
	"net/http"

	"github.com/codegangsta/martini"
	"github.com/coopernurse/gorp"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/martini-contrib/render"
	"github.com/martini-contrib/sessions"
)

// ScriptsHandler serves the read-only catalogue listing for the script
// selection screen.
func ScriptsHandler(r render.Render, db *gorp.DbMap, log *log.Logger) {
	var rows []*ScriptRow
	if _, err := db.Select(&rows, "select * from scripts order by Id"); err != nil {
		log.Printf("Failed to list scripts: %v", err)
		r.JSON(500, Message{"error": "failed to list scripts"})
		return
	}
	listing := make([]Message, 0, len(rows))
	for _, row := range rows {
		script, err := row.prepare()
		if err != nil {
			log.Printf("Failed to decode script %v: %v", row.Id, err)
			r.JSON(500, Message{"error": "failed to list scripts"})
			return
		}
		listing = append(listing, scriptSummary(script))
	}
	r.JSON(200, Message{"scripts": listing})
}

// CreateRoomHandler creates a room and makes the caller its host. The host's
// identity goes into the cookie session because it cannot be set on the
// websocket handler.
func CreateRoomHandler(r render.Render, req *http.Request, session sessions.Session, svc RoomService, log *log.Logger) {
	var body struct {
		Name        string `json:"name"`
		ScriptIndex int    `json:"scriptIndex"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		r.JSON(400, Message{"error": "invalid request body"})
		return
	}

	info, err := svc.CreateRoom(body.Name, body.ScriptIndex)
	if err != nil {
		r.JSON(400, Message{"error": err.Error()})
		return
	}
	session.Set("player_id", info.Player.Id)

	r.JSON(200, Message{"code": info.Code, "script": scriptSummary(info.Script)})
}

// JoinRoomHandler adds a player to a lobby. Validation failures go back to
// the requester alone, never into the room.
func JoinRoomHandler(r render.Render, req *http.Request, params martini.Params, session sessions.Session, svc RoomService, log *log.Logger) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		r.JSON(400, Message{"error": "invalid request body"})
		return
	}

	info, err := svc.JoinRoom(params["code"], body.Name)
	switch err {
	case nil:
	case ErrUnknownRoom:
		r.JSON(404, Message{"error": err.Error()})
		return
	default:
		r.JSON(400, Message{"error": err.Error()})
		return
	}
	session.Set("player_id", info.Player.Id)

	r.JSON(200, Message{
		"ok":          true,
		"script":      scriptSummary(info.Script),
		"assignments": info.Assignments,
	})
}

func scriptSummary(script *Script) Message {
	return Message{
		"title":       script.Title,
		"author":      script.Author,
		"description": script.Description,
		"characters":  script.Characters,
		"beatCount":   len(script.Beats),
	}
}

// WebsocketHandler is the session gateway: it ties the connection to the
// participant identity set at create/join time, fans server events out
// through a per-connection writer, and dispatches inbound messages through
// the role's action table.
func WebsocketHandler(w http.ResponseWriter, req *http.Request, params martini.Params, session sessions.Session, svc RoomService, log *log.Logger) {
	ws, err := websocket.Upgrade(w, req, nil, 1024, 1024)
	if _, ok := err.(websocket.HandshakeError); ok {
		http.Error(w, "Not a websocket handshake", 400)
		return
	} else if err != nil {
		log.Println(err)
		return
	}

	code := params["code"]
	playerId, _ := session.Get("player_id").(string)
	if playerId == "" {
		log.Println("Websocket connection without a session identity")
		ws.Close()
		return
	}

	player, send, err := svc.Attach(code, playerId)
	if err != nil {
		log.Printf("Failed to attach to room %v: %v", code, err)
		ws.Close()
		return
	}
	defer svc.Disconnect(code, playerId)

	// One writer per connection; the service only ever touches the channel.
	// When the service closes it (boot, teardown) the writer drops the
	// socket, which unblocks the read loop below.
	go func() {
		for msg := range send {
			if err := ws.WriteJSON(msg); err != nil {
				break
			}
		}
		ws.Close()
	}()

	actions := PlayerActions
	if player.Role == Host {
		actions = HostActions
	}

	for {
		msg := Message{}
		if err := ws.ReadJSON(&msg); err != nil {
			return
		}
		kind, _ := msg["type"].(string)
		action, ok := actions[kind]
		if !ok {
			log.Printf("Unknown message %q from %v in room %v", kind, player.Name, code)
			continue
		}
		action(msg, code, player, svc, log)
	}
}
