package ir

import "time"

// EventKind names something that happened to a challenge.
type EventKind string

const (
	EventChallengeCreated       EventKind = "ChallengeCreated"
	EventSocialChallengeCreated EventKind = "SocialChallengeCreated"
	EventWakeUpConfirmed        EventKind = "WakeUpConfirmed"
	EventSocialWakeUpConfirmed  EventKind = "SocialWakeUpConfirmed"
	EventChallengeFinalized     EventKind = "ChallengeFinalized"
	EventSocialChallengeSettled EventKind = "SocialChallengeSettled"
	EventOracleChanged          EventKind = "OracleChanged"
)

// Event is one entry of the append-only event log.
//
// Seq is assigned by the store inside the transaction that produced the
// event, so the log order equals the commit order. ID is content-addressed
// over every other field (see EventID).
//
// Data values must be canonical-JSON friendly: strings (amounts included),
// integers, bools, []any and map[string]any.
type Event struct {
	ID          string         `json:"id"`
	Seq         int64          `json:"seq"`
	Kind        EventKind      `json:"kind"`
	Mode        Mode           `json:"mode,omitempty"`
	ChallengeID int64          `json:"challenge_id"`
	Actor       Identity       `json:"actor"`
	At          time.Time      `json:"at"`
	Data        map[string]any `json:"data"`
}

// CanonicalMap returns the event as a map suitable for MarshalCanonical.
// The ID is excluded so it can be derived from the result.
func (e Event) CanonicalMap() map[string]any {
	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	return map[string]any{
		"seq":          e.Seq,
		"kind":         string(e.Kind),
		"mode":         string(e.Mode),
		"challenge_id": e.ChallengeID,
		"actor":        e.Actor,
		"at":           e.At.Unix(),
		"data":         data,
	}
}
