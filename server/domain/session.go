package domain

import (
	"time"
)

// Role identifies one of the two participant slots in a session.
type Role int

const (
	RoleNone Role = iota
	RoleX
	RoleY
)

func (r Role) String() string {
	switch r {
	case RoleX:
		return "x"
	case RoleY:
		return "y"
	default:
		return "none"
	}
}

// Counterpart returns the opposite slot role.
func (r Role) Counterpart() Role {
	switch r {
	case RoleX:
		return RoleY
	case RoleY:
		return RoleX
	default:
		return RoleNone
	}
}

// Asset identifies a token selected for the swap.
type Asset struct {
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId"`
}

func (a Asset) IsZero() bool {
	return a.ContractAddress == "" && a.TokenID == ""
}

// Slot holds one party's side of the negotiation. An empty Address
// means the slot is unassigned.
type Slot struct {
	Address         string `json:"address"`
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId"`
	Approved        bool   `json:"approved"`
}

// Session is the shared negotiation record for one swap attempt.
// Readiness is derived, never stored.
type Session struct {
	Timestamp int64 `json:"timestamp"`
	X         Slot  `json:"x"`
	Y         Slot  `json:"y"`
}

func NewSession() Session {
	return Session{Timestamp: time.Now().UnixMilli()}
}

// Slot returns a pointer into the session for the given role, or nil
// for RoleNone.
func (s *Session) Slot(role Role) *Slot {
	switch role {
	case RoleX:
		return &s.X
	case RoleY:
		return &s.Y
	default:
		return nil
	}
}

// RoleOf resolves an address to the slot it occupies.
func (s *Session) RoleOf(address string) Role {
	if address == "" {
		return RoleNone
	}
	switch address {
	case s.X.Address:
		return RoleX
	case s.Y.Address:
		return RoleY
	}
	return RoleNone
}

// Bind assigns the address to a slot, first-come: x, then y. An address
// already occupying a slot keeps it (reconnection). When both slots are
// taken by other addresses the session is full and RoleNone is returned.
// The second return reports whether the session was mutated.
func (s *Session) Bind(address string) (Role, bool) {
	if role := s.RoleOf(address); role != RoleNone {
		return role, false
	}
	if s.X.Address == "" {
		s.X.Address = address
		return RoleX, true
	}
	if s.Y.Address == "" {
		s.Y.Address = address
		return RoleY, true
	}
	return RoleNone, false
}

// Select records the asset a party offers. Selecting always revokes
// that party's prior approval; the counterpart's approval is untouched.
func (s *Session) Select(role Role, asset Asset) bool {
	slot := s.Slot(role)
	if slot == nil {
		return false
	}
	slot.ContractAddress = asset.ContractAddress
	slot.TokenID = asset.TokenID
	slot.Approved = false
	return true
}

// Approve marks a party's side as approved with the given asset fields.
func (s *Session) Approve(role Role, asset Asset) bool {
	slot := s.Slot(role)
	if slot == nil {
		return false
	}
	slot.ContractAddress = asset.ContractAddress
	slot.TokenID = asset.TokenID
	slot.Approved = true
	return true
}

// Ready reports whether both sides have approved.
func (s *Session) Ready() bool {
	return s.X.Approved && s.Y.Approved
}
