package points

import (
	"context"
	"database/sql"
	"errors"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/db"
)

type Store struct {
	db *sql.DB
}

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

// ExecAward は台帳への記録と残高加算を1トランザクションで行う。
// (event, ref_id) の一意制約に当たったら付与済みとして false を返す。
func (s *Store) ExecAward(ctx context.Context, e *Entry) (bool, error) {
	awarded := false
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const insLedger = `
		INSERT INTO points_ledger
		(entry_ulid, user_id, event, ref_id, points, created_at)
		VALUES
		(?, ?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, insLedger, e.EntryULID, e.UserID, string(e.Event), e.RefID, e.Points, e.CreatedAt); err != nil {
			return err
		}

		const upsertBalance = `
		INSERT INTO user_points (user_id, balance)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE balance = balance + VALUES(balance)`
		if _, err := tx.ExecContext(ctx, upsertBalance, e.UserID, e.Points); err != nil {
			return err
		}
		awarded = true
		return nil
	})
	if err != nil {
		if db.IsDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return awarded, nil
}

func (s *Store) GetSummary(ctx context.Context, userID string, limit int) (int, []Entry, error) {
	var (
		balance int
		entries []Entry
	)
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		err := tx.QueryRowContext(ctx, `SELECT balance FROM user_points WHERE user_id = ?`, userID).Scan(&balance)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
		SELECT entry_ulid, user_id, event, ref_id, points, created_at
		FROM points_ledger WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e Entry
			var ev string
			if err := rows.Scan(&e.EntryULID, &e.UserID, &ev, &e.RefID, &e.Points, &e.CreatedAt); err != nil {
				return err
			}
			e.Event = Event(ev)
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return 0, nil, err
	}
	return balance, entries, nil
}
