package domain

import (
	"fmt"
	"sync"
)

// Member is one live connection inside a room, carrying the address the
// participant declared at handshake time.
type Member struct {
	ID      string
	Address string
	Room    string
}

// RoomManager groups connections by session identifier and routes
// envelopes to all members, all-but-one, or a single member. Eviction
// closes the member's outbound channel, which the transport layer
// treats as an order to drop the connection.
type RoomManager interface {
	Join(member Member, out chan<- Envelope) error
	Leave(memberID string)
	Evict(room, address string) bool

	Addresses(room string) []string
	MemberCount(room string) int

	EmitToRoom(room string, ev Envelope) error
	EmitToOthers(room, exceptID string, ev Envelope) error
	EmitTo(memberID string, ev Envelope) error
}

type memberState struct {
	Member
	out    chan<- Envelope
	closed bool
}

type roomManagerImpl struct {
	mu      sync.RWMutex
	rooms   map[string]map[string]*memberState
	members map[string]*memberState
}

func NewRoomManager() RoomManager {
	return &roomManagerImpl{
		rooms:   make(map[string]map[string]*memberState),
		members: make(map[string]*memberState),
	}
}

func (rm *roomManagerImpl) Join(member Member, out chan<- Envelope) error {
	if member.ID == "" || member.Room == "" {
		return fmt.Errorf("invalid member: %+v", member)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, exists := rm.members[member.ID]; exists {
		return fmt.Errorf("member already joined: %s", member.ID)
	}

	state := &memberState{Member: member, out: out}
	room, exists := rm.rooms[member.Room]
	if !exists {
		room = make(map[string]*memberState)
		rm.rooms[member.Room] = room
	}
	room[member.ID] = state
	rm.members[member.ID] = state
	return nil
}

func (rm *roomManagerImpl) Leave(memberID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.remove(memberID)
}

// remove must be called with rm.mu held.
func (rm *roomManagerImpl) remove(memberID string) {
	state, exists := rm.members[memberID]
	if !exists {
		return
	}
	if room, ok := rm.rooms[state.Room]; ok {
		delete(room, memberID)
		if len(room) == 0 {
			delete(rm.rooms, state.Room)
		}
	}
	delete(rm.members, memberID)
	if !state.closed {
		state.closed = true
		close(state.out)
	}
}

// Evict disconnects any member of the room whose declared address
// matches, enforcing at-most-one live connection per (room, address).
func (rm *roomManagerImpl) Evict(room, address string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	members, exists := rm.rooms[room]
	if !exists {
		return false
	}
	evicted := false
	for id, state := range members {
		if state.Address == address {
			rm.remove(id)
			evicted = true
		}
	}
	return evicted
}

func (rm *roomManagerImpl) Addresses(room string) []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	addresses := make([]string, 0, len(rm.rooms[room]))
	for _, state := range rm.rooms[room] {
		addresses = append(addresses, state.Address)
	}
	return addresses
}

func (rm *roomManagerImpl) MemberCount(room string) int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms[room])
}

func (rm *roomManagerImpl) EmitToRoom(room string, ev Envelope) error {
	return rm.emit(room, "", ev)
}

func (rm *roomManagerImpl) EmitToOthers(room, exceptID string, ev Envelope) error {
	return rm.emit(room, exceptID, ev)
}

func (rm *roomManagerImpl) emit(room, exceptID string, ev Envelope) error {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	members, exists := rm.rooms[room]
	if !exists {
		return fmt.Errorf("room not found: %s", room)
	}
	for id, state := range members {
		if id == exceptID || state.closed {
			continue
		}
		select {
		case state.out <- ev:
		default:
			// Slow consumer, drop rather than block the room.
		}
	}
	return nil
}

func (rm *roomManagerImpl) EmitTo(memberID string, ev Envelope) error {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	state, exists := rm.members[memberID]
	if !exists || state.closed {
		return fmt.Errorf("member not found: %s", memberID)
	}
	select {
	case state.out <- ev:
		return nil
	default:
		return fmt.Errorf("member send buffer full: %s", memberID)
	}
}
