package video

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"carelink/middleware"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// frame is the wire envelope for every signaling message, in and out.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Client struct {
	ID   string
	conn *websocket.Conn
	Send chan []byte
}

// Server relays signaling traffic between the connections in a room.
// SDP offers, answers and ICE candidates pass through as opaque
// json.RawMessage, never inspected or mutated.
type Server struct {
	registry *Registry

	// dispMu serializes event handlers: each one runs to completion
	// atomically, which fixes a total delivery order per room.
	dispMu sync.Mutex

	mu       sync.Mutex
	clients  map[string]*Client
	handlers map[string]func(*Client, json.RawMessage)
}

func NewServer() *Server {
	s := &Server{
		registry: NewRegistry(),
		clients:  make(map[string]*Client),
	}
	s.handlers = map[string]func(*Client, json.RawMessage){
		"user:join":         s.onUserJoin,
		"room:join":         s.onRoomJoin,
		"call:initiate":     s.onCallInitiate,
		"call:accept":       s.onCallAccept,
		"chat:message":      s.onChatMessage,
		"screen:start":      s.onScreenStart,
		"screen:stop":       s.onScreenStop,
		"call:mute":         s.onMute,
		"call:video-toggle": s.onVideoToggle,
		"recording:start":   s.onRecordingStart,
		"recording:stop":    s.onRecordingStop,
		"room:leave":        s.onRoomLeave,
	}
	return s
}

// Registry exposes the room state, mainly for server-initiated pushes
// and tests.
func (s *Server) Registry() *Registry {
	return s.registry
}

// HandleWS upgrades GET /ws/video connections.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		conn: conn,
		Send: make(chan []byte, 256),
	}
	s.register(client)

	go writePump(client)
	s.readPump(client)
}

func (s *Server) register(c *Client) {
	s.mu.Lock()
	s.clients[c.ID] = c
	s.mu.Unlock()
}

func (s *Server) readPump(c *Client) {
	defer s.Disconnect(c)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		s.Dispatch(c, raw)
	}
}

func writePump(c *Client) {
	defer c.conn.Close()
	for msg := range c.Send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// Dispatch routes one inbound frame to its handler. Malformed frames
// and unknown events are dropped; a bad message never tears down the
// connection or the room.
func (s *Server) Dispatch(c *Client, raw []byte) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		log.Println("invalid frame:", err)
		return
	}

	handler, ok := s.handlers[f.Event]
	if !ok {
		log.Println("unknown event:", f.Event)
		return
	}

	s.dispMu.Lock()
	defer s.dispMu.Unlock()
	handler(c, f.Data)
}

// Disconnect performs room:leave cleanup for every room the connection
// was in, then forgets the connection.
func (s *Server) Disconnect(c *Client) {
	s.dispMu.Lock()
	defer s.dispMu.Unlock()

	for _, roomID := range s.registry.RoomsWithConnection(c.ID) {
		s.leaveRoom(c, roomID, "")
	}
	s.registry.Unbind(c.ID)

	s.mu.Lock()
	if _, ok := s.clients[c.ID]; ok {
		delete(s.clients, c.ID)
		close(c.Send)
	}
	s.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
	}
}

// NotifyUser pushes a server-initiated event to a user's live
// connection. Best effort: offline users are skipped.
func (s *Server) NotifyUser(userID, event string, data any) {
	s.dispMu.Lock()
	defer s.dispMu.Unlock()

	connID, ok := s.registry.ConnFor(userID)
	if !ok {
		return
	}
	s.sendTo(connID, envelope(event, data))
}

// --- event handlers ---------------------------------------

func (s *Server) onUserJoin(c *Client, data json.RawMessage) {
	var in struct {
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
		Role     string `json:"role"`
		Token    string `json:"token"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		log.Println("user:join dropped:", err)
		return
	}
	// A valid token overrides whatever userId the client claims.
	if in.Token != "" {
		claims, err := middleware.ParseToken(in.Token)
		if err != nil {
			log.Println("user:join bad token")
			return
		}
		in.UserID = claims.UserID
	}
	if in.UserID == "" {
		return
	}
	s.registry.Bind(c.ID, in.UserID)
}

func (s *Server) onRoomJoin(c *Client, data json.RawMessage) {
	var in struct {
		RoomID   string `json:"roomId"`
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.RoomID == "" {
		log.Println("room:join dropped:", err)
		return
	}

	s.registry.Bind(c.ID, in.UserID)
	s.registry.AddParticipant(in.RoomID, Participant{
		UserID:       in.UserID,
		UserName:     in.UserName,
		Role:         in.Role,
		ConnectionID: c.ID,
	})

	participants, messages := s.registry.Snapshot(in.RoomID, c.ID)
	s.sendTo(c.ID, envelope("room:state", map[string]any{
		"participants": participants,
		"messages":     messages,
	}))

	s.broadcast(in.RoomID, c.ID, envelope("user:joined", map[string]any{
		"userId":       in.UserID,
		"userName":     in.UserName,
		"role":         in.Role,
		"connectionId": c.ID,
	}))
}

func (s *Server) onCallInitiate(c *Client, data json.RawMessage) {
	var in struct {
		To     string          `json:"to"`
		Signal json.RawMessage `json:"signal"`
		From   json.RawMessage `json:"from"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.To == "" {
		log.Println("call:initiate dropped:", err)
		return
	}
	// Stale targets are a silent no-op.
	s.sendTo(in.To, envelope("call:incoming", map[string]any{
		"signal": in.Signal,
		"from":   in.From,
	}))
}

func (s *Server) onCallAccept(c *Client, data json.RawMessage) {
	var in struct {
		To     string          `json:"to"`
		Signal json.RawMessage `json:"signal"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.To == "" {
		log.Println("call:accept dropped:", err)
		return
	}
	s.sendTo(in.To, envelope("call:accepted", map[string]any{
		"signal": in.Signal,
	}))
}

func (s *Server) onChatMessage(c *Client, data json.RawMessage) {
	var in struct {
		RoomID    string `json:"roomId"`
		Message   string `json:"message"`
		UserName  string `json:"userName"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.RoomID == "" {
		log.Println("chat:message dropped:", err)
		return
	}

	msg := ChatMessage{UserName: in.UserName, Message: in.Message, Timestamp: in.Timestamp}
	if !s.registry.AppendMessage(in.RoomID, msg) {
		return
	}
	// Whole room, sender included; the single relay point fixes the
	// order every participant observes.
	s.broadcast(in.RoomID, "", envelope("chat:message", msg))
}

func (s *Server) onScreenStart(c *Client, data json.RawMessage) {
	var in struct {
		RoomID   string `json:"roomId"`
		UserName string `json:"userName"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.RoomID == "" {
		return
	}
	s.broadcast(in.RoomID, c.ID, envelope("screen:started", map[string]any{
		"userName":     in.UserName,
		"connectionId": c.ID,
	}))
}

func (s *Server) onScreenStop(c *Client, data json.RawMessage) {
	var in struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.RoomID == "" {
		return
	}
	s.broadcast(in.RoomID, c.ID, envelope("screen:stopped", map[string]any{
		"connectionId": c.ID,
	}))
}

func (s *Server) onMute(c *Client, data json.RawMessage) {
	var in struct {
		RoomID  string `json:"roomId"`
		IsMuted bool   `json:"isMuted"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.RoomID == "" {
		return
	}
	s.broadcast(in.RoomID, c.ID, envelope("user:muted", map[string]any{
		"connectionId": c.ID,
		"isMuted":      in.IsMuted,
	}))
}

func (s *Server) onVideoToggle(c *Client, data json.RawMessage) {
	var in struct {
		RoomID     string `json:"roomId"`
		IsVideoOff bool   `json:"isVideoOff"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.RoomID == "" {
		return
	}
	s.broadcast(in.RoomID, c.ID, envelope("user:video-toggled", map[string]any{
		"connectionId": c.ID,
		"isVideoOff":   in.IsVideoOff,
	}))
}

func (s *Server) onRecordingStart(c *Client, data json.RawMessage) {
	var in struct {
		RoomID   string `json:"roomId"`
		UserName string `json:"userName"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.RoomID == "" {
		return
	}
	s.broadcast(in.RoomID, "", envelope("recording:started", map[string]any{
		"userName": in.UserName,
	}))
}

func (s *Server) onRecordingStop(c *Client, data json.RawMessage) {
	var in struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.RoomID == "" {
		return
	}
	s.broadcast(in.RoomID, "", envelope("recording:stopped", map[string]any{}))
}

func (s *Server) onRoomLeave(c *Client, data json.RawMessage) {
	var in struct {
		RoomID string `json:"roomId"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.RoomID == "" {
		return
	}
	s.leaveRoom(c, in.RoomID, in.UserID)
}

// leaveRoom removes the connection from one room, tells the remaining
// members, and lets the registry prune the room when it empties.
func (s *Server) leaveRoom(c *Client, roomID, userID string) {
	removed, ok := s.registry.RemoveParticipant(roomID, c.ID)
	if !ok {
		return
	}
	if userID == "" {
		userID = removed.UserID
	}
	s.broadcast(roomID, "", envelope("user:left", map[string]any{
		"connectionId": c.ID,
		"userId":       userID,
	}))
}

// --- delivery ---------------------------------------------

func envelope(event string, data any) []byte {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Println("envelope marshal:", err)
		return nil
	}
	out, _ := json.Marshal(frame{Event: event, Data: payload})
	return out
}

// sendTo enqueues for one connection; drops if the client is gone or
// its buffer is full.
func (s *Server) sendTo(connID string, data []byte) {
	if data == nil {
		return
	}
	s.mu.Lock()
	c, ok := s.clients[connID]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Println("send buffer full, dropping frame for", connID)
	}
}

// broadcast delivers to every member of a room, optionally skipping
// one connection. Only room members ever receive room-scoped events.
func (s *Server) broadcast(roomID, exceptConnID string, data []byte) {
	if data == nil {
		return
	}
	for _, connID := range s.registry.Members(roomID) {
		if connID == exceptConnID {
			continue
		}
		s.sendTo(connID, data)
	}
}
