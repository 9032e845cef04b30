package signal

import (
	"strings"
	"testing"
)

func TestParseRegister(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"userId":"` + testU1 + `","username":"alice"}`, false},
		{"trims username", `{"userId":"` + testU1 + `","username":"  alice  "}`, false},
		{"bad uuid", `{"userId":"abc","username":"alice"}`, true},
		{"username too short", `{"userId":"` + testU1 + `","username":"a"}`, true},
		{"username too long", `{"userId":"` + testU1 + `","username":"` + strings.Repeat("a", 51) + `"}`, true},
		{"not json", `{"userId":`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := parseRegister([]byte(tc.payload))
			if tc.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
			if err == nil && p.Username != "alice" {
				t.Fatalf("username = %q", p.Username)
			}
		})
	}
}

func TestParseCall_SDPShape(t *testing.T) {
	base := `{"targetUserId":"` + testU2 + `","callerInfo":{"userId":"` + testU1 + `"},"offer":`

	for _, tc := range []struct {
		name    string
		offer   string
		wantErr bool
	}{
		{"offer", `{"type":"offer","sdp":"v=0"}`, false},
		{"pranswer", `{"type":"pranswer","sdp":"v=0"}`, false},
		{"unknown type", `{"type":"renegotiate","sdp":"v=0"}`, true},
		{"empty sdp", `{"type":"offer","sdp":""}`, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseCall([]byte(base + tc.offer + `}`))
			if tc.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestParseCall_RequiresCallerInfo(t *testing.T) {
	_, err := parseCall([]byte(`{"targetUserId":"` + testU2 + `","offer":{"type":"offer","sdp":"v=0"}}`))
	if err == nil {
		t.Fatalf("expected error for missing callerInfo")
	}
}

func TestParseCandidate_RequiresCandidateLine(t *testing.T) {
	_, err := parseCandidate([]byte(`{"targetUserId":"` + testU2 + `","candidate":{"candidate":""}}`))
	if err == nil {
		t.Fatalf("expected error for empty candidate")
	}
	p, err := parseCandidate([]byte(`{"targetUserId":"` + testU2 + `","candidate":{"candidate":"candidate:1","sdpMid":"0"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Candidate.SDPMid == nil || *p.Candidate.SDPMid != "0" {
		t.Fatalf("sdpMid not preserved: %+v", p.Candidate)
	}
}

func TestParseSubtitle(t *testing.T) {
	t.Run("truncates long text", func(t *testing.T) {
		long := strings.Repeat("ağ", 400) // multibyte, 800 runes
		p, err := parseSubtitle([]byte(`{"targetUserId":"` + testU2 + `","text":"` + long + `"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := len([]rune(p.Text)); n != maxSubtitleLen {
			t.Fatalf("expected %d runes, got %d", maxSubtitleLen, n)
		}
	})
	t.Run("defaults language", func(t *testing.T) {
		p, err := parseSubtitle([]byte(`{"targetUserId":"` + testU2 + `","text":"merhaba"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Language != "tr" {
			t.Fatalf("language = %q", p.Language)
		}
	})
	t.Run("keeps explicit language", func(t *testing.T) {
		p, err := parseSubtitle([]byte(`{"targetUserId":"` + testU2 + `","text":"hello","language":"en"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Language != "en" {
			t.Fatalf("language = %q", p.Language)
		}
	})
	t.Run("rejects empty text", func(t *testing.T) {
		if _, err := parseSubtitle([]byte(`{"targetUserId":"` + testU2 + `","text":""}`)); err == nil {
			t.Fatalf("expected error")
		}
	})
}
