package websocket

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
)

func TestBroadcastReachesOnlySubscribedToken(t *testing.T) {
	hub := NewHub()

	alice := &Client{hub: hub, send: make(chan []byte, 1), token: "alice"}
	bob := &Client{hub: hub, send: make(chan []byte, 1), token: "bob"}
	hub.registerClient(alice)
	hub.registerClient(bob)

	hub.broadcastMessage(&Message{
		Token:    "alice",
		Response: &service.FireResponse{Grid: strings.Repeat("*", 144), MapID: 3},
	})

	select {
	case payload := <-alice.send:
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("payload should be JSON: %v", err)
		}
		if msg.Token != "alice" || msg.Response == nil || msg.Response.MapID != 3 {
			t.Errorf("unexpected message %+v", msg)
		}
	default:
		t.Fatal("alice should have received the broadcast")
	}

	select {
	case <-bob.send:
		t.Fatal("bob must not receive alice's broadcast")
	default:
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, send: make(chan []byte, 1), token: "alice"}
	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, open := <-client.send; open {
		t.Error("unregister should close the send channel")
	}
	if _, ok := hub.tokens["alice"]; ok {
		t.Error("empty token group should be removed")
	}
}

func TestSlowConsumerIsDropped(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, send: make(chan []byte)} // unbuffered, never drained
	client.token = "alice"
	hub.registerClient(client)

	hub.broadcastMessage(&Message{Token: "alice", Event: "tick"})

	if hub.tokens["alice"][client] {
		t.Error("a consumer that cannot keep up should be dropped")
	}
}
