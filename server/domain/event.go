package domain

import "encoding/json"

// Channel event names. Client-sent and server-sent names share one
// vocabulary since the channel is bidirectional.
const (
	EventSelected       = "nft-selected"
	EventApproved       = "nft-approved"
	EventSwapped        = "swapped"
	EventNewParticipant = "new-participant"
	EventParticipants   = "participants"
	EventTargetSelected = "target-nft-selected"
	EventTargetApproved = "target-nft-approved"
	EventProcessSwap    = "process-swap"
	EventError          = "error"
)

// Envelope is the wire frame for every channel message: a tagged event
// name plus its raw JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an envelope. Marshal failures are
// reported to the caller; nothing is sent half-formed.
func NewEnvelope(event string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// ParticipantPayload announces a newly joined address to the room.
type ParticipantPayload struct {
	Address string `json:"address"`
}

// ParticipantsPayload is the member snapshot sent to a joiner.
type ParticipantsPayload struct {
	Addresses []string `json:"addresses"`
}

// ErrorPayload is sent to a single connection when its event was
// rejected.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
