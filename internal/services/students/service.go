package students

import (
	"context"
	"fmt"
	"strings"

	"rollcall/internal/domain"
	"rollcall/internal/hackerrank"
	"rollcall/internal/ports"
	"rollcall/internal/roster"
)

const maxSuggestions = 3

var (
	ErrRollRequired = errString("roll number is required")
	ErrInvalidURL   = errString("invalid URL")
)

// NotFoundError carries near-miss roll numbers for the caller to offer.
type NotFoundError struct {
	Roll        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("student %q not found", e.Roll)
}

func (e *NotFoundError) Is(target error) bool { return target == domain.ErrNotFound }

type Service struct {
	store  *roster.Store
	badges ports.BadgeSource
	stats  ports.StatsSource
}

func New(store *roster.Store, badges ports.BadgeSource, stats ports.StatsSource) *Service {
	return &Service{store: store, badges: badges, stats: stats}
}

func (s *Service) Lookup(ctx context.Context, roll string) (domain.Profile, error) {
	roll = strings.TrimSpace(roll)
	if roll == "" {
		return domain.Profile{}, ErrRollRequired
	}
	r := s.store.Current().Roster
	student, ok := r.Find(roll)
	if !ok {
		return domain.Profile{}, &NotFoundError{
			Roll:        strings.ToUpper(roll),
			Suggestions: r.Suggest(roll, maxSuggestions),
		}
	}
	return s.Enrich(ctx, student), nil
}

// Enrich fetches whatever each platform has for the student. Platforms are independent:
// one missing never hides the other.
func (s *Service) Enrich(ctx context.Context, student roster.Student) domain.Profile {
	prof := domain.Profile{Student: student}
	if user, ok := student.LeetCodeUsername(); ok {
		prof.LeetCodeUsername = user
		prof.LeetCode = s.stats.Stats(ctx, user)
	}
	if user, ok := student.HackerRankUsername(); ok {
		prof.HackerRankUsername = user
		prof.Badges = s.badges.Badges(ctx, user)
	}
	return prof
}

// Badges fetches badges for a HackerRank profile link.
func (s *Service) Badges(ctx context.Context, profileURL string) ([]hackerrank.Badge, error) {
	user, ok := roster.Username(profileURL, roster.HackerRankDomain)
	if !ok {
		return nil, ErrInvalidURL
	}
	return s.badges.Badges(ctx, user), nil
}

type errString string

func (e errString) Error() string { return string(e) }
