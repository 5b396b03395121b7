package hackerrank

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://hackerrank-badges.vercel.app"
	DefaultTimeout = 15 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrNoBadges         = errors.New("no recognized badges")
)

// Client fetches badge cards from the badge image service.
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
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent),
		logger: logger.With("component", "hackerrank"),
	}
}

// Fetch downloads and parses the badge card for username, reporting why nothing was
// found.
func (c *Client) Fetch(ctx context.Context, username string) ([]Badge, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("username", username).
		Get("/{username}")
	if err != nil {
		return nil, fmt.Errorf("fetch badges for %q: %w", username, err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch badges for %q: %w %d", username, ErrUnexpectedStatus, res.StatusCode())
	}

	badges, err := Extract(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("badges for %q: %w", username, err)
	}
	if len(badges) == 0 {
		return nil, fmt.Errorf("badges for %q: %w", username, ErrNoBadges)
	}
	return badges, nil
}

// Badges is Fetch with every failure folded into absence.
func (c *Client) Badges(ctx context.Context, username string) []Badge {
	if username == "" {
		return nil
	}
	badges, err := c.Fetch(ctx, username)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrNoBadges) {
			level = slog.LevelDebug
		}
		c.logger.Log(ctx, level, "no badge data", "username", username, "error", err)
		return nil
	}
	return badges
}
