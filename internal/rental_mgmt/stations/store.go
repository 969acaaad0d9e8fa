package stations

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/db"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/metrics"
)

// Store は駅在庫の台帳。貸出・返却時の増減は必ず条件付き UPDATE 1本で行い、
// 読んでから書く2往復にはしない（同一駅への同時貸出で在庫がマイナスにならないように）。
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(conn *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: conn, logger: logger}
}

func (s *Store) q(tx db.DBTX) db.DBTX {
	if tx != nil {
		return tx
	}
	return s.db
}

// ReserveSlot decrements the available count by one, or fails with
// ErrInsufficientInventory / ErrStationNotFound.
func (s *Store) ReserveSlot(ctx context.Context, tx db.DBTX, stationID string) error {
	const q = `
		UPDATE stations
		SET available_count = available_count - 1,
		    return_slots = return_slots + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE station_id = ?
		AND available_count > 0`
	res, err := s.q(tx).ExecContext(ctx, q, stationID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 1 {
		return nil
	}

	ok, err := s.exists(ctx, tx, stationID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStationNotFound
	}
	return ErrInsufficientInventory
}

// ReleaseSlot increments the available count at the return station.
// 満杯の駅への返却は加算せず Clamped=true を返す（ハードウェア側の報告と食い違っている）。
func (s *Store) ReleaseSlot(ctx context.Context, tx db.DBTX, stationID string) (Release, error) {
	const q = `
		UPDATE stations
		SET available_count = available_count + 1,
		    return_slots = GREATEST(return_slots - 1, 0),
		    updated_at = CURRENT_TIMESTAMP
		WHERE station_id = ?
		AND available_count < total_capacity`
	res, err := s.q(tx).ExecContext(ctx, q, stationID)
	if err != nil {
		return Release{}, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return Release{}, err
	}
	if aff == 1 {
		return Release{StationID: stationID}, nil
	}

	ok, err := s.exists(ctx, tx, stationID)
	if err != nil {
		return Release{}, err
	}
	if !ok {
		return Release{}, ErrStationNotFound
	}

	s.logger.Warn("slot release clamped at capacity", "station_id", stationID)
	metrics.CountInventoryClamped(stationID)
	return Release{StationID: stationID, Clamped: true}, nil
}

func (s *Store) exists(ctx context.Context, tx db.DBTX, stationID string) (bool, error) {
	const q = `SELECT 1 FROM stations WHERE station_id = ?`
	var one int
	err := s.q(tx).QueryRowContext(ctx, q, stationID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) GetStation(ctx context.Context, stationID string) (*Station, error) {
	const q = `
	SELECT station_id, name, total_capacity, available_count, return_slots, updated_at
	FROM stations WHERE station_id = ?`
	var m Station
	err := s.db.QueryRowContext(ctx, q, stationID).Scan(
		&m.StationID, &m.Name, &m.TotalCapacity, &m.AvailableCount, &m.ReturnSlots, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListStations(ctx context.Context, f StationFilter, p Page) ([]Station, int64, error) {
	where := ""
	if f.OnlyAvailable {
		where = ` WHERE available_count > 0`
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT station_id, name, total_capacity, available_count, return_slots, updated_at
	FROM stations`+where+` ORDER BY station_id LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Station
	for rows.Next() {
		var m Station
		if err := rows.Scan(&m.StationID, &m.Name, &m.TotalCapacity, &m.AvailableCount, &m.ReturnSlots, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
