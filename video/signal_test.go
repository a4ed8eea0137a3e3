package video

import (
	"encoding/json"
	"fmt"
	"testing"
)

// newTestClient registers a client with no underlying websocket; tests
// read its Send channel directly, as with the hub's fake clients.
func newTestClient(s *Server, id string) *Client {
	c := &Client{ID: id, Send: make(chan []byte, 64)}
	s.register(c)
	return c
}

func dispatch(s *Server, c *Client, event string, data string) {
	s.Dispatch(c, []byte(fmt.Sprintf(`{"event":%q,"data":%s}`, event, data)))
}

func drainOne(t *testing.T, c *Client) frame {
	t.Helper()
	select {
	case raw := <-c.Send:
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("bad frame %s: %v", raw, err)
		}
		return f
	default:
		t.Fatal("expected a frame, send queue empty")
		return frame{}
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected frame: %s", raw)
	default:
	}
}

func joinRoom(s *Server, c *Client, roomID, userID, userName string) {
	dispatch(s, c, "room:join",
		fmt.Sprintf(`{"roomId":%q,"userId":%q,"userName":%q,"role":"patient"}`, roomID, userID, userName))
}

func TestRoomJoinStateAndNotify(t *testing.T) {
	s := NewServer()
	alice := newTestClient(s, "conn-a")
	bob := newTestClient(s, "conn-b")

	joinRoom(s, alice, "apt1", "u-alice", "Alice")
	f := drainOne(t, alice)
	if f.Event != "room:state" {
		t.Fatalf("event = %q, want room:state", f.Event)
	}
	var state struct {
		Participants []Participant `json:"participants"`
		Messages     []ChatMessage `json:"messages"`
	}
	if err := json.Unmarshal(f.Data, &state); err != nil {
		t.Fatal(err)
	}
	if len(state.Participants) != 0 {
		t.Fatalf("first joiner sees %d participants, want 0", len(state.Participants))
	}

	joinRoom(s, bob, "apt1", "u-bob", "Bob")

	// Bob gets state containing Alice but not himself.
	f = drainOne(t, bob)
	if err := json.Unmarshal(f.Data, &state); err != nil {
		t.Fatal(err)
	}
	if len(state.Participants) != 1 || state.Participants[0].UserID != "u-alice" {
		t.Fatalf("bob's room:state participants = %+v", state.Participants)
	}

	// Alice is told about Bob.
	f = drainOne(t, alice)
	if f.Event != "user:joined" {
		t.Fatalf("event = %q, want user:joined", f.Event)
	}
}

func TestChatOrderingAndEcho(t *testing.T) {
	s := NewServer()
	alice := newTestClient(s, "conn-a")
	bob := newTestClient(s, "conn-b")
	joinRoom(s, alice, "apt1", "u-alice", "Alice")
	joinRoom(s, bob, "apt1", "u-bob", "Bob")
	for len(alice.Send) > 0 {
		<-alice.Send
	}
	for len(bob.Send) > 0 {
		<-bob.Send
	}

	for i := 0; i < 5; i++ {
		sender := alice
		name := "Alice"
		if i%2 == 1 {
			sender = bob
			name = "Bob"
		}
		dispatch(s, sender, "chat:message",
			fmt.Sprintf(`{"roomId":"apt1","message":"m%d","userName":%q,"timestamp":"t%d"}`, i, name, i))
	}

	// Both participants, sender included, observe the same order.
	for _, c := range []*Client{alice, bob} {
		for i := 0; i < 5; i++ {
			f := drainOne(t, c)
			if f.Event != "chat:message" {
				t.Fatalf("event = %q", f.Event)
			}
			var msg ChatMessage
			if err := json.Unmarshal(f.Data, &msg); err != nil {
				t.Fatal(err)
			}
			if want := fmt.Sprintf("m%d", i); msg.Message != want {
				t.Fatalf("client %s message %d = %q, want %q", c.ID, i, msg.Message, want)
			}
		}
	}
}

func TestRelayIsolationBetweenRooms(t *testing.T) {
	s := NewServer()
	alice := newTestClient(s, "conn-a")
	mallory := newTestClient(s, "conn-m")
	joinRoom(s, alice, "aptA", "u-alice", "Alice")
	joinRoom(s, mallory, "aptB", "u-mallory", "Mallory")
	for len(alice.Send) > 0 {
		<-alice.Send
	}
	for len(mallory.Send) > 0 {
		<-mallory.Send
	}

	dispatch(s, alice, "chat:message", `{"roomId":"aptA","message":"private","userName":"Alice","timestamp":"t"}`)
	dispatch(s, alice, "screen:start", `{"roomId":"aptA","userName":"Alice"}`)
	dispatch(s, alice, "call:mute", `{"roomId":"aptA","isMuted":true}`)

	assertEmpty(t, mallory)
}

func TestSignalRelayDirect(t *testing.T) {
	s := NewServer()
	alice := newTestClient(s, "conn-a")
	bob := newTestClient(s, "conn-b")

	dispatch(s, alice, "call:initiate", `{"to":"conn-b","signal":{"sdp":"offer-blob"},"from":{"userId":"u-alice"}}`)

	f := drainOne(t, bob)
	if f.Event != "call:incoming" {
		t.Fatalf("event = %q", f.Event)
	}
	var relay struct {
		Signal json.RawMessage `json:"signal"`
		From   json.RawMessage `json:"from"`
	}
	if err := json.Unmarshal(f.Data, &relay); err != nil {
		t.Fatal(err)
	}
	// Payload passes through untouched.
	if string(relay.Signal) != `{"sdp":"offer-blob"}` {
		t.Fatalf("signal mutated: %s", relay.Signal)
	}

	dispatch(s, bob, "call:accept", `{"to":"conn-a","signal":{"sdp":"answer-blob"}}`)
	f = drainOne(t, alice)
	if f.Event != "call:accepted" {
		t.Fatalf("event = %q", f.Event)
	}
}

func TestStaleTargetIsSilent(t *testing.T) {
	s := NewServer()
	alice := newTestClient(s, "conn-a")

	dispatch(s, alice, "call:initiate", `{"to":"gone","signal":{},"from":{}}`)
	assertEmpty(t, alice)
}

func TestMalformedEventDropped(t *testing.T) {
	s := NewServer()
	alice := newTestClient(s, "conn-a")

	s.Dispatch(alice, []byte(`not json at all`))
	s.Dispatch(alice, []byte(`{"event":"room:join","data":"not-an-object"}`))
	s.Dispatch(alice, []byte(`{"event":"no:such:event","data":{}}`))

	assertEmpty(t, alice)
	if s.registry.HasRoom("") {
		t.Fatal("malformed join must not create rooms")
	}
}

func TestRoomLeaveBroadcastsAndPrunes(t *testing.T) {
	s := NewServer()
	alice := newTestClient(s, "conn-a")
	bob := newTestClient(s, "conn-b")
	joinRoom(s, alice, "apt1", "u-alice", "Alice")
	joinRoom(s, bob, "apt1", "u-bob", "Bob")
	for len(alice.Send) > 0 {
		<-alice.Send
	}
	for len(bob.Send) > 0 {
		<-bob.Send
	}

	dispatch(s, alice, "room:leave", `{"roomId":"apt1","userId":"u-alice"}`)

	f := drainOne(t, bob)
	if f.Event != "user:left" {
		t.Fatalf("event = %q", f.Event)
	}
	var left struct {
		ConnectionID string `json:"connectionId"`
		UserID       string `json:"userId"`
	}
	if err := json.Unmarshal(f.Data, &left); err != nil {
		t.Fatal(err)
	}
	if left.ConnectionID != "conn-a" || left.UserID != "u-alice" {
		t.Fatalf("user:left = %+v", left)
	}

	dispatch(s, bob, "room:leave", `{"roomId":"apt1","userId":"u-bob"}`)
	if s.registry.HasRoom("apt1") {
		t.Fatal("room must be gone after last leave")
	}
}

func TestDisconnectCleansEveryRoom(t *testing.T) {
	s := NewServer()
	alice := newTestClient(s, "conn-a")
	bob := newTestClient(s, "conn-b")
	dispatch(s, alice, "user:join", `{"userId":"u-alice","userName":"Alice","role":"patient"}`)
	joinRoom(s, alice, "apt1", "u-alice", "Alice")
	joinRoom(s, alice, "apt2", "u-alice", "Alice")
	joinRoom(s, bob, "apt1", "u-bob", "Bob")
	for len(bob.Send) > 0 {
		<-bob.Send
	}

	s.Disconnect(alice)

	f := drainOne(t, bob)
	if f.Event != "user:left" {
		t.Fatalf("event = %q", f.Event)
	}
	if s.registry.HasRoom("apt2") {
		t.Fatal("solo room must vanish on disconnect")
	}
	if len(s.registry.RoomsWithConnection("conn-a")) != 0 {
		t.Fatal("disconnected conn still present in a room")
	}
	if _, ok := s.registry.ConnFor("u-alice"); ok {
		t.Fatal("side index must be cleared on disconnect")
	}

	// A rejoin after disconnect is a brand-new participant entry.
	alice2 := newTestClient(s, "conn-a2")
	joinRoom(s, alice2, "apt1", "u-alice", "Alice")
	f = drainOne(t, alice2)
	if f.Event != "room:state" {
		t.Fatalf("event = %q", f.Event)
	}
}

func TestControlEventsSkipSender(t *testing.T) {
	s := NewServer()
	alice := newTestClient(s, "conn-a")
	bob := newTestClient(s, "conn-b")
	joinRoom(s, alice, "apt1", "u-alice", "Alice")
	joinRoom(s, bob, "apt1", "u-bob", "Bob")
	for len(alice.Send) > 0 {
		<-alice.Send
	}
	for len(bob.Send) > 0 {
		<-bob.Send
	}

	dispatch(s, alice, "call:mute", `{"roomId":"apt1","isMuted":true}`)
	assertEmpty(t, alice)

	f := drainOne(t, bob)
	if f.Event != "user:muted" {
		t.Fatalf("event = %q", f.Event)
	}

	// Recording reaches the whole room, sender included.
	dispatch(s, alice, "recording:start", `{"roomId":"apt1","userName":"Alice"}`)
	if f := drainOne(t, alice); f.Event != "recording:started" {
		t.Fatalf("event = %q", f.Event)
	}
	if f := drainOne(t, bob); f.Event != "recording:started" {
		t.Fatalf("event = %q", f.Event)
	}
}

func TestNotifyUser(t *testing.T) {
	s := NewServer()
	alice := newTestClient(s, "conn-a")
	dispatch(s, alice, "user:join", `{"userId":"u-alice","userName":"Alice","role":"patient"}`)

	s.NotifyUser("u-alice", "appointment:update", map[string]string{"status": "confirmed"})

	f := drainOne(t, alice)
	if f.Event != "appointment:update" {
		t.Fatalf("event = %q", f.Event)
	}

	// Unknown users are skipped quietly.
	s.NotifyUser("nobody", "appointment:update", nil)
}
