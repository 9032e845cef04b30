package signal

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/codewithme13/signai-server/internal/users"

	"github.com/google/uuid"
)

// Payload validation happens once at the boundary: each inbound event is
// decoded into its typed payload and checked before any state is touched.
// A returned error is reported to the sender only and never mutates state.

const maxSubtitleLen = 500

var errBadPayload = errors.New("invalid payload format")

func validUUID(v string) bool {
	return uuid.Validate(v) == nil
}

func validSDP(d SessionDescription) bool {
	if d.SDP == "" {
		return false
	}
	switch d.Type {
	case "offer", "answer", "pranswer", "rollback":
		return true
	default:
		return false
	}
}

func parseRegister(data json.RawMessage) (RegisterPayload, error) {
	var p RegisterPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return RegisterPayload{}, errBadPayload
	}
	if !validUUID(p.UserID) {
		return RegisterPayload{}, errors.New("invalid userId (must be a UUID)")
	}
	name, ok := users.NormalizeUsername(p.Username)
	if !ok {
		return RegisterPayload{}, errors.New("invalid username (must be 2-50 characters)")
	}
	p.Username = name
	return p, nil
}

func parseCall(data json.RawMessage) (CallPayload, error) {
	var p CallPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return CallPayload{}, errBadPayload
	}
	if !validUUID(p.TargetUserID) {
		return CallPayload{}, errors.New("invalid targetUserId")
	}
	if !validSDP(p.Offer) {
		return CallPayload{}, errors.New("invalid offer (must be an SDP description)")
	}
	if p.CallerInfo.UserID == "" && p.CallerInfo.Username == "" {
		return CallPayload{}, errors.New("invalid callerInfo")
	}
	return p, nil
}

func parseAnswer(data json.RawMessage) (AnswerPayload, error) {
	var p AnswerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return AnswerPayload{}, errBadPayload
	}
	if !validUUID(p.TargetUserID) {
		return AnswerPayload{}, errors.New("invalid targetUserId")
	}
	if !validSDP(p.Answer) {
		return AnswerPayload{}, errors.New("invalid answer (must be an SDP description)")
	}
	return p, nil
}

func parseReject(data json.RawMessage) (RejectPayload, error) {
	var p RejectPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return RejectPayload{}, errBadPayload
	}
	if !validUUID(p.TargetUserID) {
		return RejectPayload{}, errBadPayload
	}
	return p, nil
}

func parseCandidate(data json.RawMessage) (CandidatePayload, error) {
	var p CandidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return CandidatePayload{}, errBadPayload
	}
	if !validUUID(p.TargetUserID) {
		return CandidatePayload{}, errors.New("invalid targetUserId")
	}
	if p.Candidate.Candidate == "" {
		return CandidatePayload{}, errors.New("invalid ICE candidate")
	}
	return p, nil
}

func parseEnd(data json.RawMessage) (EndPayload, error) {
	var p EndPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return EndPayload{}, errBadPayload
	}
	if !validUUID(p.TargetUserID) {
		return EndPayload{}, errBadPayload
	}
	return p, nil
}

func parseSubtitle(data json.RawMessage) (SubtitlePayload, error) {
	var p SubtitlePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return SubtitlePayload{}, errBadPayload
	}
	if !validUUID(p.TargetUserID) {
		return SubtitlePayload{}, errBadPayload
	}
	if p.Text == "" {
		return SubtitlePayload{}, errBadPayload
	}
	// Oversized text is relayed truncated, never dropped.
	if r := []rune(p.Text); len(r) > maxSubtitleLen {
		p.Text = string(r[:maxSubtitleLen])
	}
	if strings.TrimSpace(p.Language) == "" {
		p.Language = "tr"
	}
	return p, nil
}
