package rentals

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/db"
	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/stations"
)

// Inventory is the station slot ledger. tx が nil のときは単発の UPDATE として実行する。
type Inventory interface {
	ReserveSlot(ctx context.Context, tx db.DBTX, stationID string) error
	ReleaseSlot(ctx context.Context, tx db.DBTX, stationID string) (stations.Release, error)
}

type Store struct {
	db  *sql.DB
	inv Inventory
}

func NewStore(conn *sql.DB, inv Inventory) *Store {
	return &Store{db: conn, inv: inv}
}

// ---------- payment methods / customers (読み取り専用、登録は別サービス) ----------

const paymentMethodCols = `payment_method_id, user_id, provider_ref, type, brand, last4, status, is_default`

func scanPaymentMethod(row *sql.Row) (*PaymentMethod, error) {
	var m PaymentMethod
	err := row.Scan(&m.PaymentMethodID, &m.UserID, &m.ProviderRef, &m.Type, &m.Brand, &m.Last4, &m.Status, &m.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) GetPaymentMethod(ctx context.Context, paymentMethodID string) (*PaymentMethod, error) {
	q := `SELECT ` + paymentMethodCols + ` FROM payment_methods WHERE payment_method_id = ?`
	return scanPaymentMethod(s.db.QueryRowContext(ctx, q, paymentMethodID))
}

// DefaultPaymentMethod: is_default を優先、無ければ最後に登録された active なもの
func (s *Store) DefaultPaymentMethod(ctx context.Context, userID string) (*PaymentMethod, error) {
	q := `SELECT ` + paymentMethodCols + ` FROM payment_methods
	WHERE user_id = ? AND status = 'active'
	ORDER BY is_default DESC, created_at DESC
	LIMIT 1`
	return scanPaymentMethod(s.db.QueryRowContext(ctx, q, userID))
}

func (s *Store) GetCustomer(ctx context.Context, userID string) (*Customer, error) {
	const q = `SELECT user_id, email, stripe_customer_id FROM users WHERE user_id = ?`
	var c Customer
	err := s.db.QueryRowContext(ctx, q, userID).Scan(&c.UserID, &c.Email, &c.CustomerRef)
	if errors.Is(err, sql.ErrNoRows) {
		return &Customer{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SetCustomerRef(ctx context.Context, userID, customerRef string) error {
	const q = `
	UPDATE users SET stripe_customer_id = ?
	WHERE user_id = ? AND (stripe_customer_id IS NULL OR stripe_customer_id = '')`
	_, err := s.db.ExecContext(ctx, q, customerRef, userID)
	return err
}

// ---------- rentals ----------

func (s *Store) HasActiveRental(ctx context.Context, powerbankID string) (bool, error) {
	const q = `SELECT 1 FROM rentals WHERE powerbank_id = ? AND status = 'active' LIMIT 1`
	var one int
	err := s.db.QueryRowContext(ctx, q, powerbankID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertRental persists an active rental. active_powerbank_id の一意制約に当たったら
// ErrPowerbankInUse（同じバッテリーの同時開始で負けた側）。
func (s *Store) InsertRental(ctx context.Context, r *Rental) error {
	const q = `
	INSERT INTO rentals
	(rental_id, powerbank_id, user_id, start_station_id, start_time, status,
	 validation_fee_cents, payment_method_id, validation_charge_ref, settlement_status,
	 created_at, updated_at)
	VALUES
	(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		r.RentalID, r.PowerbankID, r.UserID, r.StartStationID, r.StartTime, string(r.Status),
		r.ValidationFeeCents, r.PaymentMethodID, r.ValidationChargeRef, string(r.SettlementStatus),
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		if db.IsDuplicateKey(err) {
			return ErrPowerbankInUse
		}
		return err
	}
	return nil
}

const rentalCols = `
	rental_id, powerbank_id, user_id, start_station_id, end_station_id, start_time, end_time,
	status, total_minutes, usage_amount_cents, penalty_amount_cents, validation_fee_cents,
	payment_method_id, validation_charge_ref, usage_charge_ref, settlement_status, settlement_error,
	created_at, updated_at`

func (s *Store) GetRental(ctx context.Context, rentalID string) (*Rental, error) {
	q := `SELECT ` + rentalCols + ` FROM rentals WHERE rental_id = ?`
	var r Rental
	var status, settlement string
	err := s.db.QueryRowContext(ctx, q, rentalID).Scan(
		&r.RentalID, &r.PowerbankID, &r.UserID, &r.StartStationID, &r.EndStationID, &r.StartTime, &r.EndTime,
		&status, &r.TotalMinutes, &r.UsageAmountCents, &r.PenaltyAmountCents, &r.ValidationFeeCents,
		&r.PaymentMethodID, &r.ValidationChargeRef, &r.UsageChargeRef, &settlement, &r.SettlementError,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.Status = Status(status)
	r.SettlementStatus = SettlementStatus(settlement)
	return &r, nil
}

// ExecCloseRental は状態遷移の確定と返却駅の在庫戻しを同じTxで行う。
// status='active' を条件にした UPDATE が 0 件なら他のリクエストが先に閉じている。
func (s *Store) ExecCloseRental(ctx context.Context, c *Closure) (stations.Release, error) {
	var rel stations.Release
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const upd = `
		UPDATE rentals
		SET status = ?,
		    end_station_id = ?,
		    end_time = ?,
		    total_minutes = ?,
		    usage_amount_cents = ?,
		    penalty_amount_cents = ?,
		    settlement_status = ?,
		    updated_at = ?
		WHERE rental_id = ?
		AND status = 'active'`
		res, err := tx.ExecContext(ctx, upd,
			string(c.Status), c.EndStationID, c.EndTime, c.TotalMinutes,
			c.UsageAmountCents, c.PenaltyAmountCents, string(c.SettlementStatus), c.EndTime,
			c.RentalID,
		)
		if err != nil {
			return err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if aff != 1 {
			return ErrNotActive
		}

		rel, err = s.inv.ReleaseSlot(ctx, tx, c.EndStationID)
		return err
	})
	if err != nil {
		return stations.Release{}, err
	}
	return rel, nil
}

func (s *Store) RecordSettlement(ctx context.Context, rentalID string, st SettlementStatus, chargeRef, detail string, at time.Time) error {
	const q = `
	UPDATE rentals
	SET settlement_status = ?,
	    usage_charge_ref = NULLIF(?, ''),
	    settlement_error = NULLIF(?, ''),
	    updated_at = ?
	WHERE rental_id = ?`
	_, err := s.db.ExecContext(ctx, q, string(st), chargeRef, detail, at, rentalID)
	return err
}

// ---------- charge ledger ----------

// InsertCharge records a pending charge before the processor is called.
// (rental_id, purpose) が既にあれば errChargeExists を返し、呼び出し側は二重請求しない。
func (s *Store) InsertCharge(ctx context.Context, c *Charge) error {
	const q = `
	INSERT INTO rental_charges
	(charge_id, rental_id, purpose, amount_cents, currency, status, created_at, updated_at)
	VALUES
	(?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		c.ChargeID, c.RentalID, string(c.Purpose), c.AmountCents, c.Currency, string(c.Status),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if db.IsDuplicateKey(err) {
			return errChargeExists
		}
		return err
	}
	return nil
}

func (s *Store) FinishCharge(ctx context.Context, chargeID string, st ChargeStatus, providerRef, failureCode string, at time.Time) error {
	const q = `
	UPDATE rental_charges
	SET status = ?,
	    provider_ref = NULLIF(?, ''),
	    failure_code = NULLIF(?, ''),
	    updated_at = ?
	WHERE charge_id = ?`
	res, err := s.db.ExecContext(ctx, q, string(st), providerRef, failureCode, at, chargeID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return errors.New("charge row not found: " + chargeID)
	}
	return nil
}
