package kilter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/pkg/config"
	"github.com/goalconnect/backend/pkg/httputil"
	"github.com/goalconnect/backend/pkg/logger"
)

// Client handles communication with the Kilter Board API. All Kilter calls
// go through this client so session login stays in one place.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string

	username string
	password string

	mu        sync.Mutex
	authToken string
}

// NewClient creates a new Kilter Board client.
func NewClient(cfg config.KilterConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.kilterboardapp.com/v1"
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		username:   cfg.Username,
		password:   cfg.Password,
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

// session is the subset of the Kilter session payload the importer needs.
type session struct {
	Date              string `json:"date"` // YYYY-MM-DD
	ProblemsAttempted int    `json:"problems_attempted"`
	ProblemsSent      int    `json:"problems_sent"`
	MaxGrade          string `json:"max_grade"`
	BoardAngle        *int   `json:"board_angle"`
}

// ensureAuth logs in once and reuses the token until a call invalidates it.
func (c *Client) ensureAuth(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.authToken != "" {
		return c.authToken, nil
	}

	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+"/login", map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("login returned status %d: %s", resp.StatusCode, string(body))
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if login.Token == "" {
		return "", fmt.Errorf("login response contained no token")
	}

	c.authToken = login.Token
	c.logger.Debug("Kilter Board login succeeded")
	return c.authToken, nil
}

// FetchSessions retrieves climbing sessions in the date range (inclusive,
// YYYY-MM-DD) and converts them for the given user.
func (c *Client) FetchSessions(ctx context.Context, userID int64, from, to string) ([]*contracts.ClimbingSession, error) {
	token, err := c.ensureAuth(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)

	var payload struct {
		Sessions []session `json:"sessions"`
	}
	endpoint := fmt.Sprintf("%s/sessions?%s", c.baseURL, params.Encode())
	headers := map[string]string{"Authorization": "Bearer " + token}
	if err := c.httpClient.GetJSONWithHeaders(ctx, endpoint, headers, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}

	sessions := make([]*contracts.ClimbingSession, 0, len(payload.Sessions))
	for _, s := range payload.Sessions {
		sessions = append(sessions, &contracts.ClimbingSession{
			UserID:            userID,
			SourceType:        contracts.SourceKilterBoard,
			SessionDate:       s.Date,
			ProblemsAttempted: s.ProblemsAttempted,
			ProblemsSent:      s.ProblemsSent,
			MaxGrade:          s.MaxGrade,
			BoardAngle:        s.BoardAngle,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"from":    from,
		"to":      to,
		"count":   len(sessions),
	}).Info("Fetched Kilter Board sessions")

	return sessions, nil
}
