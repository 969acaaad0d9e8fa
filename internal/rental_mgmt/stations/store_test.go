package stations

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewStore(conn, nil), mock
}

var (
	reserveSQL = regexp.QuoteMeta(`SET available_count = available_count - 1`)
	releaseSQL = regexp.QuoteMeta(`SET available_count = available_count + 1`)
	existsSQL  = regexp.QuoteMeta(`SELECT 1 FROM stations WHERE station_id = ?`)
)

func TestReserveSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements when stock is left", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(reserveSQL).WithArgs("ST-1").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.ReserveSlot(ctx, nil, "ST-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty station", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(reserveSQL).WithArgs("ST-1").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(existsSQL).WithArgs("ST-1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		err := s.ReserveSlot(ctx, nil, "ST-1")
		require.ErrorIs(t, err, ErrInsufficientInventory)
		require.Equal(t, 400, ToHTTPStatus(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown station", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(reserveSQL).WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(existsSQL).WithArgs("nope").WillReturnRows(sqlmock.NewRows([]string{"1"}))

		err := s.ReserveSlot(ctx, nil, "nope")
		require.ErrorIs(t, err, ErrStationNotFound)
		require.Equal(t, 404, ToHTTPStatus(err))
	})
}

func TestReleaseSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("increments", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(releaseSQL).WithArgs("ST-2").WillReturnResult(sqlmock.NewResult(0, 1))

		rel, err := s.ReleaseSlot(ctx, nil, "ST-2")
		require.NoError(t, err)
		require.False(t, rel.Clamped)
	})

	t.Run("clamped at capacity", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(releaseSQL).WithArgs("ST-2").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(existsSQL).WithArgs("ST-2").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		rel, err := s.ReleaseSlot(ctx, nil, "ST-2")
		require.NoError(t, err)
		require.True(t, rel.Clamped)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown station", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(releaseSQL).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(existsSQL).WithArgs("ghost").WillReturnRows(sqlmock.NewRows([]string{"1"}))

		_, err := s.ReleaseSlot(ctx, nil, "ghost")
		require.ErrorIs(t, err, ErrStationNotFound)
	})
}

func TestGetStation(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM stations WHERE station_id = ?`)).
		WithArgs("ST-3").
		WillReturnRows(sqlmock.NewRows([]string{"station_id", "name", "total_capacity", "available_count", "return_slots", "updated_at"}).
			AddRow("ST-3", "Centraal", 8, 5, 3, now))

	m, err := s.GetStation(context.Background(), "ST-3")
	require.NoError(t, err)
	require.Equal(t, 5, m.AvailableCount)
	require.Equal(t, "Centraal", m.Name)
}
