package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/goalconnect/backend/internal/contracts"
	"github.com/goalconnect/backend/pkg/config"
	"github.com/goalconnect/backend/pkg/httputil"
	"github.com/goalconnect/backend/pkg/logger"
)

// Client handles communication with the Strava v3 API. All Strava calls go
// through this client so token refresh stays in one place.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string

	clientID     string
	clientSecret string
	refreshToken string

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewClient creates a new Strava API client.
func NewClient(cfg config.StravaConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.strava.com/api/v3"
	}

	return &Client{
		httpClient:   httpClient,
		logger:       log,
		baseURL:      baseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// activity is the subset of the Strava activity payload the importer needs.
type activity struct {
	ID          int64   `json:"id"`
	SportType   string  `json:"sport_type"`
	StartDate   string  `json:"start_date"`
	ElapsedTime int     `json:"elapsed_time"` // seconds
	Calories    float64 `json:"calories"`
}

// ensureToken refreshes the OAuth access token when missing or near expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.expiresAt) > time.Minute {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshToken)

	resp, err := c.httpClient.PostForm(ctx, c.baseURL+"/oauth/token", form)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("token refresh returned status %d: %s", resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = token.AccessToken
	c.expiresAt = time.Unix(token.ExpiresAt, 0)
	if token.RefreshToken != "" {
		c.refreshToken = token.RefreshToken
	}

	c.logger.WithField("expires_at", c.expiresAt).Debug("Strava access token refreshed")
	return c.accessToken, nil
}

// FetchActivities retrieves the athlete's activities after the given time and
// converts them into workout events for the given user.
func (c *Client) FetchActivities(ctx context.Context, userID int64, after time.Time) ([]*contracts.WorkoutEvent, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("after", strconv.FormatInt(after.Unix(), 10))
	params.Set("per_page", "100")

	var activities []activity
	endpoint := fmt.Sprintf("%s/athlete/activities?%s", c.baseURL, params.Encode())
	headers := map[string]string{"Authorization": "Bearer " + token}
	if err := c.httpClient.GetJSONWithHeaders(ctx, endpoint, headers, &activities); err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}

	workouts := make([]*contracts.WorkoutEvent, 0, len(activities))
	for _, a := range activities {
		w, err := c.toWorkout(userID, a)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"activity_id": a.ID,
				"error":       err.Error(),
			}).Warn("Skipping unparseable Strava activity")
			continue
		}
		workouts = append(workouts, w)
	}

	c.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"count":   len(workouts),
	}).Info("Fetched Strava activities")

	return workouts, nil
}

func (c *Client) toWorkout(userID int64, a activity) (*contracts.WorkoutEvent, error) {
	start, err := time.Parse(time.RFC3339, a.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date %q: %w", a.StartDate, err)
	}

	w := &contracts.WorkoutEvent{
		UserID:          userID,
		SourceType:      contracts.SourceStrava,
		WorkoutType:     a.SportType,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(a.ElapsedTime) * time.Second),
		DurationMinutes: a.ElapsedTime / 60,
	}
	if a.Calories > 0 {
		calories := int(a.Calories)
		w.CaloriesBurned = &calories
	}
	return w, nil
}
