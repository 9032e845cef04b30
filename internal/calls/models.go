package calls

import "time"

// CallRecord is the durable audit row for one call attempt. Its ID doubles as
// the correlation id the signaling router stamps on a live invitation, so a
// teardown arriving later can close the right row.
type CallRecord struct {
	ID       string `json:"callId" db:"id"`
	CallerID string `json:"callerId" db:"caller_id"`
	CalleeID string `json:"calleeId" db:"callee_id"`

	Status    CallStatus `json:"status" db:"status"`
	EndReason EndReason  `json:"endReason,omitempty" db:"end_reason"`

	StartedAt       time.Time  `json:"startedAt" db:"started_at"`
	EndedAt         *time.Time `json:"endedAt,omitempty" db:"ended_at"`
	DurationSeconds int        `json:"durationSeconds" db:"duration_seconds"`

	// Counterpart display names, populated on history reads only.
	CallerName string `json:"callerName,omitempty" db:"caller_name"`
	CalleeName string `json:"calleeName,omitempty" db:"callee_name"`
}

type CallStatus string

const (
	StatusInitiated CallStatus = "initiated"
	StatusConnected CallStatus = "connected"
	StatusEnded     CallStatus = "ended"
)

type EndReason string

const (
	EndReasonNormal     EndReason = "normal"
	EndReasonDisconnect EndReason = "disconnect"
)

// Open reports whether the record can still transition.
func (s CallStatus) Open() bool {
	return s == StatusInitiated || s == StatusConnected
}
