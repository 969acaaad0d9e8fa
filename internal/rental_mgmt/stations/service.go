package stations

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
)

type Service struct {
	store *Store
}

func NewService(conn *sql.DB, logger *slog.Logger) *Service {
	return &Service{store: NewStore(conn, logger)}
}

// Ledger exposes the inventory store to the rental state machine.
func (s *Service) Ledger() *Store { return s.store }

func (s *Service) GetStation(ctx context.Context, stationID string) (StationResponse, error) {
	if strings.TrimSpace(stationID) == "" {
		return StationResponse{}, ErrInvalid("station_id is required")
	}
	m, err := s.store.GetStation(ctx, stationID)
	if err != nil {
		return StationResponse{}, err
	}
	return m.toDTO(), nil
}

func (s *Service) ListStations(ctx context.Context, f StationFilter, p Page) (ListStationsResult, error) {
	rows, total, err := s.store.ListStations(ctx, f, p)
	if err != nil {
		return ListStationsResult{}, err
	}
	items := make([]StationResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toDTO())
	}
	next := p.Offset + p.Limit
	if next >= int(total) {
		next = 0
	} // 0=終端
	return ListStationsResult{Items: items, Total: total, NextOffset: next}, nil
}
