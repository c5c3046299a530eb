package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeJoinRequest  = 101
	MsgTypeLeaveRoom    = 102
	MsgTypePlayerAction = 201
	MsgTypePlayerJoined = 301
	MsgTypePlayerLeft   = 302
	MsgTypeRoomState    = 303
	MsgTypeJoinFailed   = 401
	MsgTypeActionFailed = 402
)

var msgNames = map[uint16]string{
	MsgTypePlayerJoined: "player_joined",
	MsgTypePlayerLeft:   "player_left",
	MsgTypeRoomState:    "room_state_update",
	MsgTypeJoinFailed:   "join_failed",
	MsgTypeActionFailed: "action_failed",
}

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: client <roomId> <username>")
	}
	roomID, username := os.Args[1], os.Args[2]

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				log.Printf("Read error: %v", err)
				return
			}
			if len(data) < 4 {
				continue
			}
			msgID := binary.BigEndian.Uint16(data[0:2])
			name := msgNames[msgID]
			if name == "" {
				name = "unknown"
			}
			log.Printf("<- %s %s", name, data[4:])
		}
	}()

	join := map[string]string{"roomId": roomID, "username": username}
	if err := send(c, MsgTypeJoinRequest, join); err != nil {
		log.Fatalf("Join failed: %v", err)
	}

	// stdin commands: theme <name> | ready | leave
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				continue
			}
			switch fields[0] {
			case "theme":
				if len(fields) < 2 {
					log.Println("usage: theme <name>")
					continue
				}
				send(c, MsgTypePlayerAction, map[string]string{
					"roomId": roomID, "action": "select_theme", "theme": fields[1],
				})
			case "ready":
				send(c, MsgTypePlayerAction, map[string]string{
					"roomId": roomID, "action": "content_ready",
				})
			case "leave":
				send(c, MsgTypeLeaveRoom, map[string]string{})
			default:
				log.Printf("Unknown command: %s", fields[0])
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("Interrupted, closing connection")
		c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
