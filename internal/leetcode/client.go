// Package leetcode reads solve counts from the public LeetCode stats mirror.
package leetcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://leetcode-stats-api.herokuapp.com"
	DefaultTimeout = 10 * time.Second
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrInvalidBody      = errors.New("body is not JSON")
)

// Stats mirrors the stats API body. Raw keeps the body exactly as received so callers
// can pass it through untouched.
type Stats struct {
	Status       string          `json:"status"`
	Message      string          `json:"message"`
	TotalSolved  int             `json:"totalSolved"`
	EasySolved   int             `json:"easySolved"`
	MediumSolved int             `json:"mediumSolved"`
	HardSolved   int             `json:"hardSolved"`
	Ranking      int             `json:"ranking"`
	Raw          json.RawMessage `json:"-"`
}

func (s Stats) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	type plain Stats
	return json.Marshal(plain(s))
}

type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout),
		logger: logger.With("component", "leetcode"),
	}
}

func (c *Client) Fetch(ctx context.Context, username string) (*Stats, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("username", username).
		Get("/{username}")
	if err != nil {
		return nil, fmt.Errorf("fetch stats for %q: %w", username, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch stats for %q: %w %d", username, ErrUnexpectedStatus, res.StatusCode())
	}

	body := res.Body()
	if !json.Valid(body) {
		return nil, fmt.Errorf("decode stats for %q: %w", username, ErrInvalidBody)
	}
	stats := decodeStats(body)
	stats.Raw = append(json.RawMessage(nil), body...)
	return stats, nil
}

// decodeStats fills the typed fields it can read. A field of an unexpected type is left
// zero; the raw body is still passed through untouched.
func decodeStats(body []byte) *Stats {
	var fields map[string]json.RawMessage
	stats := &Stats{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return stats
	}
	_ = json.Unmarshal(fields["status"], &stats.Status)
	_ = json.Unmarshal(fields["message"], &stats.Message)
	stats.TotalSolved = intField(fields["totalSolved"])
	stats.EasySolved = intField(fields["easySolved"])
	stats.MediumSolved = intField(fields["mediumSolved"])
	stats.HardSolved = intField(fields["hardSolved"])
	stats.Ranking = intField(fields["ranking"])
	return stats
}

func intField(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return int(f)
}

// Stats is Fetch with every failure folded into absence.
func (c *Client) Stats(ctx context.Context, username string) *Stats {
	if username == "" {
		return nil
	}
	stats, err := c.Fetch(ctx, username)
	if err != nil {
		c.logger.WarnContext(ctx, "no stats data", "username", username, "error", err)
		return nil
	}
	return stats
}
