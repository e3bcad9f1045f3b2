package adaptor

import (
	"context"
	"encoding/json"

	"github.com/ponyo877/swapdesk/server/domain"
)

type Usecase interface {
	CreateSession(ctx context.Context) (string, error)
	GetSession(ctx context.Context, id string) (domain.Session, error)

	Join(ctx context.Context, sessionID, address, memberID string, out chan<- domain.Envelope) error
	Leave(memberID string)
	NotifyError(memberID, code, message string)

	Select(ctx context.Context, member domain.Member, asset domain.Asset) error
	Approve(ctx context.Context, member domain.Member, asset domain.Asset) error
	Swapped(ctx context.Context, member domain.Member, payload json.RawMessage) error
}
