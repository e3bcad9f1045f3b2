package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ponyo877/swapdesk/server/domain"
)

// Select records the asset a party offers and tells the counterpart.
// Selecting always clears the issuer's own approval; broadcasts fire
// only after the session was persisted.
func (u *Usecase) Select(ctx context.Context, member domain.Member, asset domain.Asset) error {
	release := u.locks.Acquire(member.Room)
	defer release()

	session, err := u.store.GetSession(ctx, member.Room)
	if err != nil {
		return fmt.Errorf("select in %s: %w", member.Room, err)
	}
	role := session.RoleOf(member.Address)
	if !session.Select(role, asset) {
		return fmt.Errorf("select in %s by %s: %w", member.Room, member.Address, ErrNoSlot)
	}
	if err := u.store.PutSession(ctx, member.Room, session); err != nil {
		return fmt.Errorf("persist selection: %w", err)
	}

	ev, err := domain.NewEnvelope(domain.EventTargetSelected, asset)
	if err != nil {
		return err
	}
	u.rooms.EmitToOthers(member.Room, member.ID, ev)
	u.logger.Info("asset selected", "session_id", member.Room, "role", role.String(), "contract", asset.ContractAddress, "token", asset.TokenID)
	return nil
}

// Approve confirms the issuer's side of the swap. When the counterpart
// had already approved before this event, the issuer alone receives
// process-swap carrying the full session: the second approver is the
// one told to proceed.
func (u *Usecase) Approve(ctx context.Context, member domain.Member, asset domain.Asset) error {
	release := u.locks.Acquire(member.Room)
	defer release()

	session, err := u.store.GetSession(ctx, member.Room)
	if err != nil {
		return fmt.Errorf("approve in %s: %w", member.Room, err)
	}
	role := session.RoleOf(member.Address)
	counterpartApproved := false
	if other := session.Slot(role.Counterpart()); other != nil {
		counterpartApproved = other.Approved
	}
	if !session.Approve(role, asset) {
		return fmt.Errorf("approve in %s by %s: %w", member.Room, member.Address, ErrNoSlot)
	}
	if err := u.store.PutSession(ctx, member.Room, session); err != nil {
		return fmt.Errorf("persist approval: %w", err)
	}

	if counterpartApproved {
		if ev, err := domain.NewEnvelope(domain.EventProcessSwap, session); err == nil {
			u.rooms.EmitTo(member.ID, ev)
		}
		u.logger.Info("both sides approved", "session_id", member.Room)
	}
	ev, err := domain.NewEnvelope(domain.EventTargetApproved, asset)
	if err != nil {
		return err
	}
	u.rooms.EmitToOthers(member.Room, member.ID, ev)
	u.logger.Info("asset approved", "session_id", member.Room, "role", role.String())
	return nil
}

// Swapped relays a completion notification verbatim to the whole room,
// sender included. The payload is not verified; it is a best-effort
// "done" signal.
func (u *Usecase) Swapped(ctx context.Context, member domain.Member, payload json.RawMessage) error {
	ev := domain.Envelope{Event: domain.EventSwapped, Data: payload}
	if err := u.rooms.EmitToRoom(member.Room, ev); err != nil {
		return fmt.Errorf("relay swapped in %s: %w", member.Room, err)
	}
	u.logger.Info("swap completion relayed", "session_id", member.Room, "address", member.Address)
	return nil
}
