package api

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func waitForClients(t *testing.T, hub *WSHub, want int) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients, has %d", want, hub.ClientCount())
}

func TestFeedPushSurvivesDisconnect(t *testing.T) {
	hub := NewWSHub(zerolog.Nop())
	go hub.Run()

	client := &WSClient{
		send: make(chan []byte, 1),
		hub:  hub,
		done: make(chan struct{}),
	}
	hub.register <- client
	waitForClients(t, hub, 1)

	close(client.done)
	hub.unregister <- client
	waitForClients(t, hub, 0)

	// a feed goroutine mid-push must be able to keep sending after the
	// client was unregistered
	for i := 0; i < 5; i++ {
		select {
		case client.send <- []byte("snapshot"):
		default:
		}
	}
}

func TestUnregisterUnknownClientIsHarmless(t *testing.T) {
	hub := NewWSHub(zerolog.Nop())
	go hub.Run()

	client := &WSClient{
		send: make(chan []byte, 1),
		hub:  hub,
		done: make(chan struct{}),
	}
	hub.unregister <- client
	hub.unregister <- client
	waitForClients(t, hub, 0)
}

func TestResetFeedReplacesPreviousSubscription(t *testing.T) {
	client := &WSClient{
		send: make(chan []byte, 1),
		done: make(chan struct{}),
	}

	first := client.resetFeed()
	second := client.resetFeed()

	select {
	case <-first:
	default:
		t.Error("previous feed stop channel not closed on resubscribe")
	}
	select {
	case <-second:
		t.Error("fresh feed stop channel already closed")
	default:
	}

	client.stopFeedLoop()
	select {
	case <-second:
	default:
		t.Error("unsubscribe did not close the active stop channel")
	}
}
