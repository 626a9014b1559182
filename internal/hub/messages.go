package hub

import (
	"encoding/json"

	"tabletally/internal/match"
)

// MessageType tags an envelope on the push channel.
type MessageType string

const (
	// Server -> client.
	MessageStateSnapshot MessageType = "state_snapshot"
	MessageError         MessageType = "error"

	// Client -> server mutation requests.
	MessageUpdateScore MessageType = "update_score"
	MessageIncrementCP MessageType = "increment_cp"
	MessageEndTurn     MessageType = "end_turn"
	MessageConcedeGame MessageType = "concede_game"
)

// Envelope is the typed message with payload that crosses the wire in both
// directions.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UpdateScoreRequest sets one score column for a contestant.
type UpdateScoreRequest struct {
	ContestantID string `json:"contestant_id"`
	Kind         string `json:"kind"`
	Value        int    `json:"value"`
}

// IncrementCPRequest applies a command point delta, floored at zero.
type IncrementCPRequest struct {
	ContestantID string `json:"contestant_id"`
	Delta        int    `json:"delta"`
}

// EndTurnRequest ends the active contestant's turn. Honored only when the
// sender names the active contestant.
type EndTurnRequest struct {
	ContestantID string `json:"contestant_id"`
}

// ConcedeGameRequest ends the match immediately, awarding it to the other
// contestant.
type ConcedeGameRequest struct {
	ContestantID string `json:"contestant_id"`
}

// ErrorPayload is returned to the specific requester on rejection; other
// subscribers never see it.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newSnapshotEnvelope(snap match.Snapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: MessageStateSnapshot, Payload: payload})
}

func newErrorEnvelope(code, message string) ([]byte, error) {
	payload, err := json.Marshal(ErrorPayload{Code: code, Message: message})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: MessageError, Payload: payload})
}
