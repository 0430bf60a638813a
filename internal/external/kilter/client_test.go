package kilter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/pkg/config"
	"github.com/goalconnect/backend/pkg/httputil"
	"github.com/goalconnect/backend/pkg/logger"
)

func newTestClient(baseURL string) *Client {
	log := logger.NewNop()
	return NewClient(config.KilterConfig{
		Username: "climber",
		Password: "chalk",
		BaseURL:  baseURL,
	}, httputil.New(log).DisableRetry(), log)
}

func TestFetchSessionsLogsInAndConverts(t *testing.T) {
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		logins++
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("decode login body: %v", err)
		}
		if creds["username"] != "climber" {
			t.Errorf("username = %q, want climber", creds["username"])
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "session-token"})
	})
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
			t.Errorf("Authorization = %q, want Bearer session-token", got)
		}
		if got := r.URL.Query().Get("from"); got != "2025-03-24" {
			t.Errorf("from = %q, want 2025-03-24", got)
		}
		angle := 40
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sessions": []map[string]interface{}{
				{
					"date":               "2025-03-31",
					"problems_attempted": 15,
					"problems_sent":      8,
					"max_grade":          "V5",
					"board_angle":        angle,
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	sessions, err := client.FetchSessions(ctx, 7, "2025-03-24", "2025-03-31")
	if err != nil {
		t.Fatalf("FetchSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}

	s := sessions[0]
	if s.SourceType != contracts.SourceKilterBoard {
		t.Errorf("SourceType = %q, want %q", s.SourceType, contracts.SourceKilterBoard)
	}
	if s.Date() != "2025-03-31" {
		t.Errorf("Date() = %q, want 2025-03-31", s.Date())
	}
	if s.ProblemsSent != 8 {
		t.Errorf("ProblemsSent = %d, want 8", s.ProblemsSent)
	}
	if s.MaxGrade != "V5" {
		t.Errorf("MaxGrade = %q, want V5", s.MaxGrade)
	}
	if s.BoardAngle == nil || *s.BoardAngle != 40 {
		t.Errorf("BoardAngle = %v, want 40", s.BoardAngle)
	}

	// Token is reused across calls.
	if _, err := client.FetchSessions(ctx, 7, "2025-03-24", "2025-03-31"); err != nil {
		t.Fatalf("second FetchSessions: %v", err)
	}
	if logins != 1 {
		t.Errorf("login endpoint hit %d times, want 1", logins)
	}
}

func TestFetchSessionsLoginFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad credentials"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(srv.URL)
	if _, err := client.FetchSessions(context.Background(), 7, "2025-03-24", "2025-03-31"); err == nil {
		t.Fatal("expected error on failed login")
	}
}
