package signal

// Event names carried in the wire envelope. Inbound names are what clients
// send; outbound names are what the router emits. ice-candidate and subtitle
// are relayed under their inbound name.
const (
	EventRegister     = "register"
	EventCallUser     = "call-user"
	EventAnswerCall   = "answer-call"
	EventRejectCall   = "reject-call"
	EventICECandidate = "ice-candidate"
	EventEndCall      = "end-call"
	EventSubtitle     = "subtitle"

	EventError        = "error"
	EventUserOnline   = "user-online"
	EventOnlineUsers  = "online-users"
	EventCallError    = "call-error"
	EventIncomingCall = "incoming-call"
	EventCallAnswered = "call-answered"
	EventCallRejected = "call-rejected"
	EventCallEnded    = "call-ended"
	EventUserOffline  = "user-offline"
)

// Conn is one live transport session. The transport layer owns the socket;
// the router only keys state by ID and pushes outbound events through Send.
// Send must never block the caller; delivery is best-effort at-most-once.
type Conn interface {
	ID() string
	Send(event string, payload any)
}

// Identity is the durable user behind a connection.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Peer is an identity as presented to other clients, with a best-effort
// profile photo reference.
type Peer struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

// SessionDescription is an opaque negotiation payload. The router checks its
// shape and relays it verbatim; it never parses the SDP body.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// ICECandidate is relayed verbatim once its shape is validated.
type ICECandidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *int    `json:"sdpMLineIndex,omitempty"`
}

/* ===================== INBOUND PAYLOADS ===================== */

type RegisterPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type CallPayload struct {
	TargetUserID string             `json:"targetUserId"`
	Offer        SessionDescription `json:"offer"`
	CallerInfo   Identity           `json:"callerInfo"`
}

type AnswerPayload struct {
	TargetUserID string             `json:"targetUserId"`
	Answer       SessionDescription `json:"answer"`
}

type RejectPayload struct {
	TargetUserID string `json:"targetUserId"`
}

type CandidatePayload struct {
	TargetUserID string       `json:"targetUserId"`
	Candidate    ICECandidate `json:"candidate"`
}

type EndPayload struct {
	TargetUserID string `json:"targetUserId"`
}

type SubtitlePayload struct {
	TargetUserID string `json:"targetUserId"`
	Text         string `json:"text"`
	Language     string `json:"language"`
}

/* ===================== OUTBOUND PAYLOADS ===================== */

type ErrorNotice struct {
	Message string `json:"message"`
}

type CallErrorNotice struct {
	Message      string `json:"message"`
	TargetUserID string `json:"targetUserId"`
}

type OnlineUsersNotice struct {
	Users []Peer `json:"users"`
}

type IncomingCallNotice struct {
	CallerID    string             `json:"callerId"`
	CallerName  string             `json:"callerName"`
	CallerPhoto string             `json:"callerPhoto,omitempty"`
	Offer       SessionDescription `json:"offer"`
	CallID      string             `json:"callId"`
}

type CallAnsweredNotice struct {
	Answer     SessionDescription `json:"answer"`
	AnsweredBy Identity           `json:"answeredBy"`
}

type CallRejectedNotice struct {
	RejectedBy Identity `json:"rejectedBy"`
}

type CallEndedNotice struct {
	EndedBy Identity `json:"endedBy"`
	Reason  string   `json:"reason,omitempty"`
}

type CandidateNotice struct {
	Candidate ICECandidate `json:"candidate"`
	From      string       `json:"from"`
}

type SubtitleNotice struct {
	Text      string `json:"text"`
	Language  string `json:"language"`
	From      string `json:"from"`
	Timestamp int64  `json:"timestamp"`
}
