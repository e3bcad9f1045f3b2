package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/ponyo877/swapdesk/server/domain"
)

// Session ids mirror the short hex form participants paste into wallets:
// six characters, lowercase hex alphabet.
const (
	sessionIDAlphabet = "0123456789abcdef"
	sessionIDLength   = 6
)

// ErrNoSlot is returned when a connection without a slot tries to
// negotiate. Only the two slotted parties may select or approve.
var ErrNoSlot = errors.New("participant has no slot")

type Usecase struct {
	store  Repository
	rooms  domain.RoomManager
	locks  *sessionLocks
	logger *slog.Logger
}

func NewUsecase(store Repository, rooms domain.RoomManager, logger *slog.Logger) *Usecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &Usecase{
		store:  store,
		rooms:  rooms,
		locks:  newSessionLocks(),
		logger: logger,
	}
}

// CreateSession persists a fresh empty session and returns its id.
func (u *Usecase) CreateSession(ctx context.Context) (string, error) {
	id, err := nanoid.Generate(sessionIDAlphabet, sessionIDLength)
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	if err := u.store.PutSession(ctx, id, domain.NewSession()); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	u.logger.Info("session created", "session_id", id)
	return id, nil
}

// GetSession looks up a session by id.
func (u *Usecase) GetSession(ctx context.Context, id string) (domain.Session, error) {
	return u.store.GetSession(ctx, id)
}

// Join resolves a connecting participant into a slot and admits the
// connection to the room. The session must already exist; a store miss
// rejects the connection. Any live room member with the same declared
// address is evicted first, so refresh/reconnect never leaves a ghost
// duplicate behind.
func (u *Usecase) Join(ctx context.Context, sessionID, address, memberID string, out chan<- domain.Envelope) error {
	release := u.locks.Acquire(sessionID)
	defer release()

	session, err := u.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("join %s: %w", sessionID, err)
	}

	if u.rooms.Evict(sessionID, address) {
		u.logger.Info("evicted stale connection", "session_id", sessionID, "address", address)
	}

	role, changed := session.Bind(address)
	if changed {
		if err := u.store.PutSession(ctx, sessionID, session); err != nil {
			return fmt.Errorf("persist slot binding: %w", err)
		}
	}
	if role == domain.RoleNone {
		u.logger.Warn("session full, admitting without slot", "session_id", sessionID, "address", address)
	}

	member := domain.Member{ID: memberID, Address: address, Room: sessionID}
	if err := u.rooms.Join(member, out); err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	if ev, err := domain.NewEnvelope(domain.EventNewParticipant, domain.ParticipantPayload{Address: address}); err == nil {
		u.rooms.EmitToOthers(sessionID, memberID, ev)
	}
	snapshot := domain.ParticipantsPayload{Addresses: u.rooms.Addresses(sessionID)}
	if ev, err := domain.NewEnvelope(domain.EventParticipants, snapshot); err == nil {
		u.rooms.EmitTo(memberID, ev)
	}

	u.logger.Info("participant joined", "session_id", sessionID, "address", address, "role", role.String())
	return nil
}

// Leave drops the connection from its room. Slot assignments persist in
// the store so the participant can reconnect later.
func (u *Usecase) Leave(memberID string) {
	u.rooms.Leave(memberID)
}

// NotifyError sends an error event to a single connection. Delivery is
// best-effort: a member that was evicted or left in the meantime is
// simply skipped, the room manager checks liveness under its lock.
func (u *Usecase) NotifyError(memberID, code, message string) {
	ev, err := domain.NewEnvelope(domain.EventError, domain.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	u.rooms.EmitTo(memberID, ev)
}

// RunSweeper deletes sessions older than ttl every interval until ctx
// is cancelled. A ttl of zero disables sweeping.
func (u *Usecase) RunSweeper(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := u.store.DeleteSessionsBefore(ctx, time.Now().Add(-ttl))
			if err != nil {
				u.logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				u.logger.Info("swept expired sessions", "count", n)
			}
		}
	}
}
