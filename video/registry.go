package video

import (
	"sync"
	"time"
)

type Participant struct {
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	Role         string `json:"role"`
	ConnectionID string `json:"connectionId"`
}

type ChatMessage struct {
	UserName  string `json:"userName"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Room is ephemeral call state. It exists only while it has
// participants; the transcript dies with it.
type Room struct {
	Participants []Participant
	Messages     []ChatMessage
	StartTime    time.Time
}

// Registry tracks active rooms and the connection<->user side index.
// It is owned by one Server instance, never a package-level singleton,
// and all operations are serialized by its mutex.
type Registry struct {
	mu         sync.Mutex
	rooms      map[string]*Room
	userByConn map[string]string // connectionId -> userId
	connByUser map[string]string // userId -> connectionId
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:      make(map[string]*Room),
		userByConn: make(map[string]string),
		connByUser: make(map[string]string),
	}
}

// Bind records the connection's user identity. A rebind replaces any
// previous binding for that connection.
func (reg *Registry) Bind(connectionID, userID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.userByConn[connectionID] = userID
	reg.connByUser[userID] = connectionID
}

// Unbind drops the side-index entries for a connection.
func (reg *Registry) Unbind(connectionID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if userID, ok := reg.userByConn[connectionID]; ok {
		if reg.connByUser[userID] == connectionID {
			delete(reg.connByUser, userID)
		}
		delete(reg.userByConn, connectionID)
	}
}

// ConnFor returns the live connection for a user, if any.
func (reg *Registry) ConnFor(userID string) (string, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	connID, ok := reg.connByUser[userID]
	return connID, ok
}

func (reg *Registry) ensureRoomLocked(roomID string) *Room {
	room, ok := reg.rooms[roomID]
	if !ok {
		room = &Room{
			Participants: []Participant{},
			Messages:     []ChatMessage{},
			StartTime:    time.Now(),
		}
		reg.rooms[roomID] = room
	}
	return room
}

// AddParticipant joins a connection to a room, creating the room
// lazily. No dedupe by userId: two tabs are two participants.
func (reg *Registry) AddParticipant(roomID string, p Participant) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room := reg.ensureRoomLocked(roomID)
	room.Participants = append(room.Participants, p)
}

// RemoveParticipant removes a connection from a room. The room is
// deleted the instant its participant list becomes empty. Returns the
// removed participant and whether a removal happened.
func (reg *Registry) RemoveParticipant(roomID, connectionID string) (Participant, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[roomID]
	if !ok {
		return Participant{}, false
	}

	var removed Participant
	found := false
	remaining := room.Participants[:0]
	for _, p := range room.Participants {
		if !found && p.ConnectionID == connectionID {
			removed = p
			found = true
			continue
		}
		remaining = append(remaining, p)
	}
	if !found {
		return Participant{}, false
	}

	room.Participants = remaining
	if len(room.Participants) == 0 {
		delete(reg.rooms, roomID)
	}
	return removed, true
}

// AppendMessage adds to the room transcript. Silently dropped when the
// room is already gone; a late message is not an error.
func (reg *Registry) AppendMessage(roomID string, msg ChatMessage) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[roomID]
	if !ok {
		return false
	}
	room.Messages = append(room.Messages, msg)
	return true
}

// Snapshot returns the room state sent to a joining client: every
// other participant plus the transcript so far.
func (reg *Registry) Snapshot(roomID, exceptConnID string) (participants []Participant, messages []ChatMessage) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	participants = []Participant{}
	messages = []ChatMessage{}
	room, ok := reg.rooms[roomID]
	if !ok {
		return
	}
	for _, p := range room.Participants {
		if p.ConnectionID != exceptConnID {
			participants = append(participants, p)
		}
	}
	messages = append(messages, room.Messages...)
	return
}

// Members lists the connection ids currently in a room.
func (reg *Registry) Members(roomID string) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[roomID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(room.Participants))
	for _, p := range room.Participants {
		ids = append(ids, p.ConnectionID)
	}
	return ids
}

// RoomsWithConnection lists every room a connection participates in.
// Used for disconnect cleanup.
func (reg *Registry) RoomsWithConnection(connectionID string) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var roomIDs []string
	for roomID, room := range reg.rooms {
		for _, p := range room.Participants {
			if p.ConnectionID == connectionID {
				roomIDs = append(roomIDs, roomID)
				break
			}
		}
	}
	return roomIDs
}

// HasRoom reports whether a room currently exists.
func (reg *Registry) HasRoom(roomID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	_, ok := reg.rooms[roomID]
	return ok
}
