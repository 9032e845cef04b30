package signal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	persistTimeout   = 5 * time.Second
	persistQueueSize = 256
)

// Repository is the narrow persistence surface the router consumes. Every
// write is best-effort: failures are logged and never surfaced to a peer,
// and no relay decision waits on one.
type Repository interface {
	CreateCallRecord(ctx context.Context, callID, callerID, calleeID string) error
	MarkCallConnected(ctx context.Context, callID string) error
	EndCallByID(ctx context.Context, callID, reason string) error
	EndCallByPeers(ctx context.Context, userA, userB, reason string) error

	MarkUserOnline(ctx context.Context, userID, username string) error
	SetUserOffline(ctx context.Context, userID string) error
}

// PhotoResolver resolves a best-effort profile photo reference for a user.
// An empty string means no photo.
type PhotoResolver interface {
	PhotoURL(userID string) string
}

// Options tune the router. Zero values fall back to the historical budget of
// 50 events per minute per connection.
type Options struct {
	RateMax    int
	RateWindow time.Duration
	Photos     PhotoResolver
	Clock      func() time.Time
}

// Router is the signaling event dispatcher: it owns the presence registry,
// the call session table, the per-connection rate limiter, and the set of
// live connections. One inbound event is handled to completion before its
// state changes are visible to the next; handlers never block on a peer.
type Router struct {
	log    *slog.Logger
	repo   Repository
	photos PhotoResolver
	clock  func() time.Time

	limits   *rateLimiter
	presence *presenceRegistry
	sessions *sessionTable

	writes  chan persistJob
	writeWG sync.WaitGroup

	mu    sync.RWMutex
	conns map[string]Conn
}

type persistJob struct {
	op string
	fn func(context.Context) error
}

func NewRouter(repo Repository, log *slog.Logger, opts Options) *Router {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.RateMax <= 0 {
		opts.RateMax = 50
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	r := &Router{
		log:      log,
		repo:     repo,
		photos:   opts.Photos,
		clock:    opts.Clock,
		limits:   newRateLimiter(opts.RateMax, opts.RateWindow, opts.Clock),
		presence: newPresenceRegistry(),
		sessions: newSessionTable(),
		writes:   make(chan persistJob, persistQueueSize),
		conns:    map[string]Conn{},
	}
	go r.persistLoop()
	return r
}

// Attach makes a freshly opened connection routable. Nothing else happens
// until the client sends register.
func (r *Router) Attach(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = conn
}

// Online reports how many users are currently registered.
func (r *Router) Online() int { return r.presence.Users() }

// ActiveCalls reports how many established sessions exist.
func (r *Router) ActiveCalls() int { return r.sessions.ActiveSessions() }

// HandleEvent dispatches one inbound event. Unknown events are dropped.
func (r *Router) HandleEvent(conn Conn, event string, data json.RawMessage) {
	switch event {
	case EventRegister:
		r.handleRegister(conn, data)
	case EventCallUser:
		r.handleCall(conn, data)
	case EventAnswerCall:
		r.handleAnswer(conn, data)
	case EventRejectCall:
		r.handleReject(conn, data)
	case EventICECandidate:
		r.handleCandidate(conn, data)
	case EventEndCall:
		r.handleEnd(conn, data)
	case EventSubtitle:
		r.handleSubtitle(conn, data)
	default:
		r.log.Debug("unknown event dropped", "event", event, "conn", conn.ID())
	}
}

/* ===================== REGISTER ===================== */

func (r *Router) handleRegister(conn Conn, data json.RawMessage) {
	// register is the one event whose rate rejection is reported back.
	if !r.limits.Allow(conn.ID()) {
		conn.Send(EventError, ErrorNotice{Message: "rate limit exceeded"})
		return
	}

	p, err := parseRegister(data)
	if err != nil {
		conn.Send(EventError, ErrorNotice{Message: err.Error()})
		return
	}

	id := Identity{UserID: p.UserID, Username: p.Username}
	r.presence.Register(conn.ID(), id)
	r.log.Info("user registered", "user_id", id.UserID, "username", id.Username, "conn", conn.ID(), "online", r.presence.Users())

	r.persist("mark user online", func(ctx context.Context) error {
		return r.repo.MarkUserOnline(ctx, id.UserID, id.Username)
	})

	r.broadcast(conn.ID(), EventUserOnline, Peer{
		UserID:   id.UserID,
		Username: id.Username,
		PhotoURL: r.photoURL(id.UserID),
	})

	others := r.presence.Others(conn.ID())
	snapshot := make([]Peer, 0, len(others))
	for _, o := range others {
		snapshot = append(snapshot, Peer{
			UserID:   o.UserID,
			Username: o.Username,
			PhotoURL: r.photoURL(o.UserID),
		})
	}
	conn.Send(EventOnlineUsers, OnlineUsersNotice{Users: snapshot})
}

/* ===================== CALL SETUP ===================== */

func (r *Router) handleCall(conn Conn, data json.RawMessage) {
	if !r.limits.Allow(conn.ID()) {
		return
	}

	p, err := parseCall(data)
	if err != nil {
		r.log.Warn("invalid call-user payload", "conn", conn.ID(), "err", err)
		conn.Send(EventError, ErrorNotice{Message: err.Error()})
		return
	}

	caller, registered := r.presence.IdentityFor(conn.ID())
	if !registered {
		// Unregistered callers can still ring a peer; display identity
		// comes from the payload and no record is written.
		caller = p.CallerInfo
	}

	targetConnID, ok := r.presence.ConnFor(p.TargetUserID)
	targetConn, live := r.conn(targetConnID)
	if !ok || !live {
		conn.Send(EventCallError, CallErrorNotice{Message: "user is offline", TargetUserID: p.TargetUserID})
		return
	}

	callID := uuid.NewString()
	r.sessions.BeginInvitation(conn.ID(), targetConnID, callID)
	r.log.Info("call requested", "caller", caller.Username, "target", p.TargetUserID, "call_id", callID)

	targetConn.Send(EventIncomingCall, IncomingCallNotice{
		CallerID:    caller.UserID,
		CallerName:  caller.Username,
		CallerPhoto: r.photoURL(caller.UserID),
		Offer:       p.Offer,
		CallID:      callID,
	})

	if registered {
		r.persist("create call record", func(ctx context.Context) error {
			return r.repo.CreateCallRecord(ctx, callID, caller.UserID, p.TargetUserID)
		})
	}
}

func (r *Router) handleAnswer(conn Conn, data json.RawMessage) {
	if !r.limits.Allow(conn.ID()) {
		return
	}

	p, err := parseAnswer(data)
	if err != nil {
		r.log.Warn("invalid answer-call payload", "conn", conn.ID(), "err", err)
		conn.Send(EventError, ErrorNotice{Message: err.Error()})
		return
	}

	callerConnID, ok := r.presence.ConnFor(p.TargetUserID)
	callerConn, live := r.conn(callerConnID)
	if !ok || !live {
		return
	}

	answeredBy, _ := r.presence.IdentityFor(conn.ID())
	callerConn.Send(EventCallAnswered, CallAnsweredNotice{
		Answer:     p.Answer,
		AnsweredBy: answeredBy,
	})

	// Either side may still sit in an earlier session; end it before the new
	// link so no connection ever holds two partners and no partner is left
	// pointing at a connection that has moved on.
	r.endStaleSession(conn.ID(), callerConnID)
	r.endStaleSession(callerConnID, conn.ID())

	r.sessions.Establish(conn.ID(), callerConnID)

	if callID, ok := r.sessions.CorrelationID(conn.ID()); ok {
		r.persist("mark call connected", func(ctx context.Context) error {
			return r.repo.MarkCallConnected(ctx, callID)
		})
	}
}

// endStaleSession tears down connID's established session unless its partner
// is newPartner. The abandoned peer is notified and the old record closed,
// exactly as on an explicit end.
func (r *Router) endStaleSession(connID, newPartner string) {
	if p, ok := r.sessions.Partner(connID); !ok || p == newPartner {
		return
	}

	staleConnID, staleCallID, ok := r.sessions.DetachPartner(connID)
	if !ok {
		return
	}

	endedBy, registered := r.presence.IdentityFor(connID)
	if staleConn, live := r.conn(staleConnID); live {
		staleConn.Send(EventCallEnded, CallEndedNotice{EndedBy: endedBy})
	}

	staleIdentity, staleKnown := r.presence.IdentityFor(staleConnID)
	switch {
	case staleCallID != "":
		r.persist("end superseded call record", func(ctx context.Context) error {
			return r.repo.EndCallByID(ctx, staleCallID, string(ReasonNormal))
		})
	case registered && staleKnown:
		r.persist("end superseded call record by pair", func(ctx context.Context) error {
			return r.repo.EndCallByPeers(ctx, endedBy.UserID, staleIdentity.UserID, string(ReasonNormal))
		})
	}
}

func (r *Router) handleReject(conn Conn, data json.RawMessage) {
	if !r.limits.Allow(conn.ID()) {
		return
	}

	p, err := parseReject(data)
	if err != nil {
		return
	}

	callerConnID, ok := r.presence.ConnFor(p.TargetUserID)
	callerConn, live := r.conn(callerConnID)
	if !ok || !live {
		return
	}

	rejectedBy, _ := r.presence.IdentityFor(conn.ID())
	callerConn.Send(EventCallRejected, CallRejectedNotice{RejectedBy: rejectedBy})
}

/* ===================== RELAY ===================== */

func (r *Router) handleCandidate(conn Conn, data json.RawMessage) {
	if !r.limits.Allow(conn.ID()) {
		return
	}

	p, err := parseCandidate(data)
	if err != nil {
		r.log.Warn("invalid ice-candidate payload", "conn", conn.ID(), "err", err)
		return
	}

	targetConnID, ok := r.presence.ConnFor(p.TargetUserID)
	targetConn, live := r.conn(targetConnID)
	if !ok || !live {
		return
	}

	sender, _ := r.presence.IdentityFor(conn.ID())
	targetConn.Send(EventICECandidate, CandidateNotice{
		Candidate: p.Candidate,
		From:      sender.UserID,
	})
}

func (r *Router) handleSubtitle(conn Conn, data json.RawMessage) {
	if !r.limits.Allow(conn.ID()) {
		return
	}

	p, err := parseSubtitle(data)
	if err != nil {
		return
	}

	targetConnID, ok := r.presence.ConnFor(p.TargetUserID)
	targetConn, live := r.conn(targetConnID)
	if !ok || !live {
		return
	}

	sender, _ := r.presence.IdentityFor(conn.ID())
	targetConn.Send(EventSubtitle, SubtitleNotice{
		Text:      p.Text,
		Language:  p.Language,
		From:      sender.UserID,
		Timestamp: r.clock().UnixMilli(),
	})
}

/* ===================== TEARDOWN ===================== */

func (r *Router) handleEnd(conn Conn, data json.RawMessage) {
	if !r.limits.Allow(conn.ID()) {
		return
	}

	p, err := parseEnd(data)
	if err != nil {
		return
	}

	endedBy, registered := r.presence.IdentityFor(conn.ID())

	targetConnID, _ := r.presence.ConnFor(p.TargetUserID)
	if targetConn, live := r.conn(targetConnID); live {
		targetConn.Send(EventCallEnded, CallEndedNotice{EndedBy: endedBy})
	}

	// Close the record by correlation id when resolvable; fall back to the
	// identity pair, since the terminating side may never have learnt the id.
	callID, _ := r.sessions.CorrelationID(conn.ID())
	switch {
	case callID != "":
		r.persist("end call record", func(ctx context.Context) error {
			return r.repo.EndCallByID(ctx, callID, string(ReasonNormal))
		})
	case registered:
		r.persist("end call record by pair", func(ctx context.Context) error {
			return r.repo.EndCallByPeers(ctx, endedBy.UserID, p.TargetUserID, string(ReasonNormal))
		})
	}

	r.sessions.Drop(conn.ID(), targetConnID)
}

// HandleDisconnect is the transport-close path: it tears down any session,
// announces the departure, and purges every piece of per-connection state so
// nothing leaks across reconnects.
func (r *Router) HandleDisconnect(conn Conn) {
	connID := conn.ID()
	identity, registered := r.presence.IdentityFor(connID)

	partnerConnID, callID, hadSession := r.sessions.Teardown(connID)
	if hadSession {
		partnerIdentity, partnerKnown := r.presence.IdentityFor(partnerConnID)
		if partnerConn, live := r.conn(partnerConnID); live {
			partnerConn.Send(EventCallEnded, CallEndedNotice{
				EndedBy: identity,
				Reason:  string(ReasonDisconnect),
			})
		}
		switch {
		case callID != "":
			r.persist("end call record on disconnect", func(ctx context.Context) error {
				return r.repo.EndCallByID(ctx, callID, string(ReasonDisconnect))
			})
		case registered && partnerKnown:
			r.persist("end call record by pair on disconnect", func(ctx context.Context) error {
				return r.repo.EndCallByPeers(ctx, identity.UserID, partnerIdentity.UserID, string(ReasonDisconnect))
			})
		}
	}

	if registered {
		r.log.Info("user disconnected", "user_id", identity.UserID, "username", identity.Username, "conn", connID)
		r.broadcast(connID, EventUserOffline, Identity{
			UserID:   identity.UserID,
			Username: identity.Username,
		})
		r.persist("set user offline", func(ctx context.Context) error {
			return r.repo.SetUserOffline(ctx, identity.UserID)
		})
	}

	r.presence.Remove(connID)
	r.limits.Forget(connID)

	r.mu.Lock()
	delete(r.conns, connID)
	r.mu.Unlock()
}

/* ===================== HELPERS ===================== */

// End reasons recorded on call teardown.
type EndReason string

const (
	ReasonNormal     EndReason = "normal"
	ReasonDisconnect EndReason = "disconnect"
)

// conn resolves a connection id to its live connection. Relay targets are
// always resolved here at the moment of delivery, never cached, so stale
// references fail resolution instead of misdelivering.
func (r *Router) conn(connID string) (Conn, bool) {
	if connID == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	return c, ok
}

func (r *Router) broadcast(exceptConnID, event string, payload any) {
	r.mu.RLock()
	targets := make([]Conn, 0, len(r.conns))
	for id, c := range r.conns {
		if id == exceptConnID {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		c.Send(event, payload)
	}
}

func (r *Router) photoURL(userID string) string {
	if r.photos == nil || userID == "" {
		return ""
	}
	return r.photos.PhotoURL(userID)
}

// persist enqueues a repository write without blocking the event handler.
// The notification for the triggering event has already been emitted by the
// time the write runs; a failure is logged and affects neither peer. A full
// queue drops the write, matching the best-effort contract.
func (r *Router) persist(op string, fn func(context.Context) error) {
	if r.repo == nil {
		return
	}
	r.writeWG.Add(1)
	select {
	case r.writes <- persistJob{op: op, fn: fn}:
	default:
		r.writeWG.Done()
		r.log.Warn("persist queue full, dropping write", "op", op)
	}
}

// persistLoop is the single writer draining the queue, so record transitions
// land in the order their events were handled.
func (r *Router) persistLoop() {
	for job := range r.writes {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := job.fn(ctx)
		cancel()
		if err != nil {
			r.log.Error("repository write failed", "op", job.op, "err", err)
		}
		r.writeWG.Done()
	}
}

// flushWrites blocks until every queued repository write has run.
func (r *Router) flushWrites() { r.writeWG.Wait() }
