package points

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/metrics"
)

var ErrInvalidUser = errors.New("user_id is required")

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type awardStore interface {
	ExecAward(ctx context.Context, e *Entry) (bool, error)
	GetSummary(ctx context.Context, userID string, limit int) (int, []Entry, error)
}

type Service struct {
	store  awardStore
	rules  Rules
	clock  Clock
	logger *slog.Logger
}

func NewService(conn *sql.DB, rules Rules, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: NewStore(conn), rules: rules, clock: realClock{}, logger: logger}
}

// Award grants the points configured for event, at most once per (event, refID).
// 戻り値は今回付与したポイント数（付与済み・対象外なら 0）
func (s *Service) Award(ctx context.Context, userID string, event Event, refID string) (int, error) {
	if userID == "" {
		return 0, ErrInvalidUser
	}
	pts := s.rules[event]
	if pts <= 0 {
		return 0, nil
	}

	now := s.clock.Now()
	e := &Entry{
		EntryULID: ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0)).String(),
		UserID:    userID,
		Event:     event,
		RefID:     refID,
		Points:    pts,
		CreatedAt: now,
	}
	ok, err := s.store.ExecAward(ctx, e)
	if err != nil {
		return 0, err
	}
	if !ok {
		s.logger.Info("points already awarded", "user_id", userID, "event", event, "ref_id", refID)
		return 0, nil
	}
	metrics.CountPointsAwarded(string(event), pts)
	return pts, nil
}

func (s *Service) Summary(ctx context.Context, userID string) (SummaryResponse, error) {
	if userID == "" {
		return SummaryResponse{}, ErrInvalidUser
	}
	balance, entries, err := s.store.GetSummary(ctx, userID, 20)
	if err != nil {
		return SummaryResponse{}, err
	}
	out := SummaryResponse{UserID: userID, Balance: balance, Recent: make([]EntryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Recent = append(out.Recent, EntryResponse{
			EntryID:   e.EntryULID,
			Event:     e.Event,
			RefID:     e.RefID,
			Points:    e.Points,
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}
