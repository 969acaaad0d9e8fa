package rentals

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/pricing"
)

// History is the read side: 利用者本人の貸出履歴と明細。書き込みは Service/Store のみ。
type History struct {
	db     *sqlx.DB
	policy pricing.Policy
	clock  Clock
}

func NewHistory(conn *sql.DB, policy pricing.Policy) *History {
	return &History{db: sqlx.NewDb(conn, "mysql"), policy: policy, clock: realClock{}}
}

type rentalRow struct {
	RentalID           string         `db:"rental_id"`
	PowerbankID        string         `db:"powerbank_id"`
	UserID             string         `db:"user_id"`
	StartStationID     string         `db:"start_station_id"`
	EndStationID       sql.NullString `db:"end_station_id"`
	StartTime          time.Time      `db:"start_time"`
	EndTime            sql.NullTime   `db:"end_time"`
	Status             string         `db:"status"`
	TotalMinutes       int            `db:"total_minutes"`
	UsageAmountCents   int64          `db:"usage_amount_cents"`
	PenaltyAmountCents int64          `db:"penalty_amount_cents"`
	ValidationFeeCents int64          `db:"validation_fee_cents"`
	SettlementStatus   string         `db:"settlement_status"`
}

type chargeRow struct {
	ChargeID    string         `db:"charge_id"`
	Purpose     string         `db:"purpose"`
	AmountCents int64          `db:"amount_cents"`
	Currency    string         `db:"currency"`
	Status      string         `db:"status"`
	ProviderRef sql.NullString `db:"provider_ref"`
	FailureCode sql.NullString `db:"failure_code"`
	CreatedAt   time.Time      `db:"created_at"`
}

const historyCols = `rental_id, powerbank_id, user_id, start_station_id, end_station_id, start_time, end_time,
	status, total_minutes, usage_amount_cents, penalty_amount_cents, validation_fee_cents, settlement_status`

// GET /rentals
func (h *History) ListRentals(ctx context.Context, userID string, f RentalFilter, p Page) (ListRentalsResult, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.Status != nil {
		switch *f.Status {
		case StatusActive, StatusCompleted, StatusPurchased:
		default:
			return ListRentalsResult{}, ErrInvalid("status must be active, completed or purchased")
		}
		where = append(where, "status = ?")
		args = append(args, string(*f.Status))
	}
	if p.Limit <= 0 || p.Limit > 200 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	order := "DESC"
	if strings.EqualFold(p.Order, "asc") {
		order = "ASC"
	}
	cond := " WHERE " + strings.Join(where, " AND ")

	var total int64
	if err := h.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM rentals`+cond, args...); err != nil {
		return ListRentalsResult{}, err
	}

	var rows []rentalRow
	q := `SELECT ` + historyCols + ` FROM rentals` + cond +
		` ORDER BY start_time ` + order + `, rental_id ` + order + ` LIMIT ? OFFSET ?`
	if err := h.db.SelectContext(ctx, &rows, q, append(args, p.Limit, p.Offset)...); err != nil {
		return ListRentalsResult{}, err
	}

	now := h.clock.Now()
	items := make([]RentalResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, h.toResponse(r, now))
	}

	next := p.Offset + len(items)
	if int64(next) >= total {
		next = 0
	}
	return ListRentalsResult{Items: items, Total: total, NextOffset: next}, nil
}

// GET /rentals/active
func (h *History) ActiveRentals(ctx context.Context, userID string) ([]RentalResponse, error) {
	var rows []rentalRow
	q := `SELECT ` + historyCols + ` FROM rentals WHERE user_id = ? AND status = 'active' ORDER BY start_time DESC`
	if err := h.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	now := h.clock.Now()
	out := make([]RentalResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, h.toResponse(r, now))
	}
	return out, nil
}

// GET /rentals/:rental_id  他人の貸出は NOT_FOUND
func (h *History) GetRental(ctx context.Context, userID, rentalID string) (RentalResponse, error) {
	var r rentalRow
	q := `SELECT ` + historyCols + ` FROM rentals WHERE rental_id = ? AND user_id = ?`
	if err := h.db.GetContext(ctx, &r, q, rentalID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RentalResponse{}, ErrNotFound
		}
		return RentalResponse{}, err
	}

	var charges []chargeRow
	const cq = `
	SELECT charge_id, purpose, amount_cents, currency, status, provider_ref, failure_code, created_at
	FROM rental_charges WHERE rental_id = ? ORDER BY created_at, charge_id`
	if err := h.db.SelectContext(ctx, &charges, cq, rentalID); err != nil {
		return RentalResponse{}, err
	}

	res := h.toResponse(r, h.clock.Now())
	res.Charges = make([]ChargeResponse, 0, len(charges))
	for _, c := range charges {
		res.Charges = append(res.Charges, ChargeResponse{
			ChargeID:    c.ChargeID,
			Purpose:     c.Purpose,
			AmountCents: c.AmountCents,
			Currency:    c.Currency,
			Status:      c.Status,
			ProviderRef: nullToPtr(c.ProviderRef),
			FailureCode: nullToPtr(c.FailureCode),
			CreatedAt:   c.CreatedAt,
		})
	}
	return res, nil
}

func (h *History) toResponse(r rentalRow, now time.Time) RentalResponse {
	res := RentalResponse{
		RentalID:           r.RentalID,
		PowerbankID:        r.PowerbankID,
		Status:             Status(r.Status),
		StartStationID:     r.StartStationID,
		EndStationID:       nullToPtr(r.EndStationID),
		StartTime:          r.StartTime,
		TotalMinutes:       r.TotalMinutes,
		ValidationFeeCents: r.ValidationFeeCents,
		UsageAmountCents:   r.UsageAmountCents,
		PenaltyAmountCents: r.PenaltyAmountCents,
		SettlementStatus:   SettlementStatus(r.SettlementStatus),
	}
	if r.EndTime.Valid {
		t := r.EndTime.Time
		res.EndTime = &t
	}
	if res.Status == StatusActive {
		minutes := elapsedMinutes(r.StartTime, now)
		q := h.policy.Quote(minutes, r.ValidationFeeCents)
		untilLate := h.policy.LateThresholdMinutes() - minutes
		if untilLate < 0 {
			untilLate = 0
		}
		res.CurrentQuote = &QuoteResponse{
			ElapsedMinutes:   minutes,
			OwedCents:        q.OwedCents,
			AdditionalCents:  q.AdditionalCents,
			IsLatePenalty:    q.Late.IsLate,
			MinutesUntilLate: untilLate,
			Breakdown:        q.Breakdown,
		}
	}
	return res
}

func nullToPtr(ns sql.NullString) *string {
	if ns.Valid {
		s := ns.String
		return &s
	}
	return nil
}

// ListSettlements は突合用。返却済みで追加請求が失敗・未確定の貸出を古い順に返す
func (h *History) ListSettlements(ctx context.Context, st SettlementStatus, p Page) (ListRentalsResult, error) {
	switch st {
	case SettlementFailed, SettlementNone:
	default:
		return ListRentalsResult{}, ErrInvalid("status must be failed or none")
	}
	if p.Limit <= 0 || p.Limit > 200 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	const cond = ` WHERE status <> 'active' AND settlement_status = ?`

	var total int64
	if err := h.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM rentals`+cond, string(st)); err != nil {
		return ListRentalsResult{}, err
	}
	var rows []rentalRow
	q := `SELECT ` + historyCols + ` FROM rentals` + cond + ` ORDER BY end_time ASC, rental_id ASC LIMIT ? OFFSET ?`
	if err := h.db.SelectContext(ctx, &rows, q, string(st), p.Limit, p.Offset); err != nil {
		return ListRentalsResult{}, err
	}

	now := h.clock.Now()
	items := make([]RentalResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, h.toResponse(r, now))
	}
	next := p.Offset + len(items)
	if int64(next) >= total {
		next = 0
	}
	return ListRentalsResult{Items: items, Total: total, NextOffset: next}, nil
}
