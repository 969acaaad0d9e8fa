package rentals

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	ulid "github.com/oklog/ulid/v2"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/metrics"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/payment"
	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/points"
	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/pricing"
	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/stations"
)

// -------------- dependencies --------------

type Repository interface {
	GetPaymentMethod(ctx context.Context, paymentMethodID string) (*PaymentMethod, error)
	DefaultPaymentMethod(ctx context.Context, userID string) (*PaymentMethod, error)
	GetCustomer(ctx context.Context, userID string) (*Customer, error)
	SetCustomerRef(ctx context.Context, userID, customerRef string) error

	HasActiveRental(ctx context.Context, powerbankID string) (bool, error)
	InsertRental(ctx context.Context, r *Rental) error
	GetRental(ctx context.Context, rentalID string) (*Rental, error)
	ExecCloseRental(ctx context.Context, c *Closure) (stations.Release, error)
	RecordSettlement(ctx context.Context, rentalID string, st SettlementStatus, chargeRef, detail string, at time.Time) error

	InsertCharge(ctx context.Context, c *Charge) error
	FinishCharge(ctx context.Context, chargeID string, st ChargeStatus, providerRef, failureCode string, at time.Time) error
}

type Gateway interface {
	Configured() bool
	Charge(ctx context.Context, req payment.ChargeRequest) (payment.ChargeResult, error)
	CreateCustomer(ctx context.Context, userID, email, paymentMethodRef string) (string, error)
	Refund(ctx context.Context, chargeID, idempotencyKey string) error
}

type Awarder interface {
	Award(ctx context.Context, userID string, event points.Event, refID string) (int, error)
}

// 後始末（在庫戻し・返金・精算記録）に与える猶予。決済のタイムアウトより長く取る
const cleanupTimeout = 30 * time.Second

// -------------- Clock & ID --------------

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface {
	NewULID(t time.Time) string
	NewPowerbankID() string
}
type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

func (ulidGen) NewPowerbankID() string {
	return "PB-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// -------------- Service --------------

type Service struct {
	repo   Repository
	inv    Inventory
	gw     Gateway
	awards Awarder
	policy pricing.Policy
	clock  Clock
	id     IDGen
	logger *slog.Logger
}

func NewService(repo Repository, inv Inventory, gw Gateway, awards Awarder, policy pricing.Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		inv:    inv,
		gw:     gw,
		awards: awards,
		policy: policy,
		clock:  realClock{},
		id:     ulidGen{},
		logger: logger,
	}
}

func idempotencyKey(rentalID string, purpose payment.Purpose) string {
	return fmt.Sprintf("rental_%s_%s", rentalID, purpose)
}

// POST /rentals
// 在庫確保・与信確認の請求・レコード作成の3つが全部成功するか、全部なかったことになる。
func (s *Service) StartRental(ctx context.Context, userID string, in StartRentalRequest) (StartRentalResponse, error) {
	res, err := s.startRental(ctx, userID, in)
	if err != nil {
		var api *APIError
		if errors.As(err, &api) {
			metrics.CountStartRejected(string(api.Code))
		} else {
			metrics.CountStartRejected(string(CodeInternal))
		}
		return StartRentalResponse{}, err
	}
	metrics.CountRentalStarted(res.StationID)
	return res, nil
}

func (s *Service) startRental(ctx context.Context, userID string, in StartRentalRequest) (StartRentalResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return StartRentalResponse{}, ErrInvalid("user_id required")
	}
	if strings.TrimSpace(in.StationID) == "" {
		return StartRentalResponse{}, ErrInvalid("stationId required")
	}
	fee := s.policy.ValidationFeeCents
	if fee > 0 && !s.gw.Configured() {
		return StartRentalResponse{}, ErrPaymentNotConfigured
	}

	// 1) 支払い方法
	pm, err := s.resolvePaymentMethod(ctx, userID, in.PaymentMethodID)
	if err != nil {
		return StartRentalResponse{}, err
	}
	customerRef := ""
	if fee > 0 {
		customerRef, err = s.ensureCustomer(ctx, userID, pm)
		if err != nil {
			return StartRentalResponse{}, err
		}
	}

	// 2) 同じバッテリーの貸出中チェック（最終的な保証は一意制約）
	powerbankID := in.PowerbankID
	if powerbankID == "" {
		powerbankID = s.id.NewPowerbankID()
	} else {
		busy, err := s.repo.HasActiveRental(ctx, powerbankID)
		if err != nil {
			return StartRentalResponse{}, err
		}
		if busy {
			return StartRentalResponse{}, ErrPowerbankInUse
		}
	}

	// 3) 在庫確保
	if err := s.inv.ReserveSlot(ctx, nil, in.StationID); err != nil {
		return StartRentalResponse{}, fromInventoryErr(err)
	}

	now := s.clock.Now()
	rentalID := s.id.NewULID(now)

	// 4) 与信確認の請求。失敗したら確保した在庫を戻す
	chargeRef := ""
	if fee > 0 {
		chargeRef, err = s.charge(ctx, rentalID, payment.PurposeValidation, fee, customerRef, pm.ProviderRef)
		if err != nil {
			s.compensate(ctx, rentalID, in.StationID, "", err)
			return StartRentalResponse{}, gatewayErr(err)
		}
	}

	// 5) 永続化
	r := &Rental{
		RentalID:            rentalID,
		PowerbankID:         powerbankID,
		UserID:              userID,
		StartStationID:      in.StationID,
		StartTime:           now,
		Status:              StatusActive,
		ValidationFeeCents:  fee,
		PaymentMethodID:     pm.PaymentMethodID,
		ValidationChargeRef: sql.NullString{String: chargeRef, Valid: chargeRef != ""},
		SettlementStatus:    SettlementNone,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.InsertRental(ctx, r); err != nil {
		s.compensate(ctx, rentalID, in.StationID, chargeRef, err)
		return StartRentalResponse{}, err
	}

	s.logger.Info("rental started",
		"rental_id", rentalID, "user_id", userID, "station_id", in.StationID,
		"powerbank_id", powerbankID, "validation_charge", chargeRef)

	return StartRentalResponse{
		RentalID:             rentalID,
		PowerbankID:          powerbankID,
		StationID:            in.StationID,
		StartTime:            now,
		ValidationFeeCharged: chargeRef != "",
		ValidationAmount:     fee,
		Pricing:              pricingInfo(s.policy),
	}, nil
}

func (s *Service) resolvePaymentMethod(ctx context.Context, userID, paymentMethodID string) (*PaymentMethod, error) {
	if paymentMethodID == "" {
		pm, err := s.repo.DefaultPaymentMethod(ctx, userID)
		if err != nil {
			return nil, err
		}
		if pm == nil {
			return nil, ErrNoPaymentMethod
		}
		return pm, nil
	}
	pm, err := s.repo.GetPaymentMethod(ctx, paymentMethodID)
	if err != nil {
		return nil, err
	}
	// 他人のものは存在しない扱い
	if pm == nil || pm.UserID != userID || !pm.Usable() {
		return nil, ErrInvalidPaymentMethod
	}
	return pm, nil
}

// ensureCustomer returns the processor customer, creating it with the method attached on first use.
func (s *Service) ensureCustomer(ctx context.Context, userID string, pm *PaymentMethod) (string, error) {
	c, err := s.repo.GetCustomer(ctx, userID)
	if err != nil {
		return "", err
	}
	if c.CustomerRef.Valid && c.CustomerRef.String != "" {
		return c.CustomerRef.String, nil
	}
	ref, err := s.gw.CreateCustomer(ctx, userID, c.Email.String, pm.ProviderRef)
	if err != nil {
		return "", gatewayErr(err)
	}
	if err := s.repo.SetCustomerRef(ctx, userID, ref); err != nil {
		return "", err
	}
	s.logger.Info("payment customer created", "user_id", userID, "customer", ref)
	return ref, nil
}

// charge は台帳に pending を入れてから決済を呼び、結果で台帳を確定する。
// DB のTxは開いたまま決済を呼ばない。
func (s *Service) charge(ctx context.Context, rentalID string, purpose payment.Purpose, amount int64, customerRef, methodRef string) (string, error) {
	now := s.clock.Now()
	c := &Charge{
		ChargeID:    s.id.NewULID(now),
		RentalID:    rentalID,
		Purpose:     purpose,
		AmountCents: amount,
		Currency:    s.policy.Currency,
		Status:      ChargePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertCharge(ctx, c); err != nil {
		return "", err
	}

	res, err := s.gw.Charge(ctx, payment.ChargeRequest{
		CustomerRef:      customerRef,
		PaymentMethodRef: methodRef,
		AmountMinor:      amount,
		Currency:         s.policy.Currency,
		Purpose:          purpose,
		RentalID:         rentalID,
		IdempotencyKey:   idempotencyKey(rentalID, purpose),
		Description:      fmt.Sprintf("PawaTasty rental %s (%s)", rentalID, purpose),
	})
	// 決済の結果は呼び出し元が切断していても台帳に残す
	fctx := context.WithoutCancel(ctx)
	if err != nil {
		metrics.CountCharge(string(purpose), "failed", amount)
		if ferr := s.repo.FinishCharge(fctx, c.ChargeID, ChargeFailed, "", payment.FailureCode(err), s.clock.Now()); ferr != nil {
			s.logger.Error("charge ledger update failed", "charge_id", c.ChargeID, "err", ferr)
		}
		return "", err
	}

	metrics.CountCharge(string(purpose), "succeeded", amount)
	if ferr := s.repo.FinishCharge(fctx, c.ChargeID, ChargeSucceeded, res.ChargeID, "", s.clock.Now()); ferr != nil {
		// 請求自体は成功しているので参照は返す
		s.logger.Error("charge ledger update failed", "charge_id", c.ChargeID, "provider_ref", res.ChargeID, "err", ferr)
	}
	return res.ChargeID, nil
}

// compensate は開始失敗時の後始末。確保済みの在庫を戻し、請求済みなら返金する。
// リクエストが取り消されていても最後まで走らせる。
func (s *Service) compensate(ctx context.Context, rentalID, stationID, chargeRef string, cause error) {
	ctx, cancel := detach(ctx)
	defer cancel()

	if _, err := s.inv.ReleaseSlot(ctx, nil, stationID); err != nil {
		s.logger.Error("compensating slot release failed", "rental_id", rentalID, "station_id", stationID, "err", err)
	}
	if chargeRef != "" {
		if err := s.gw.Refund(ctx, chargeRef, idempotencyKey(rentalID, purposeRefund)); err != nil {
			s.logger.Error("compensating refund failed", "rental_id", rentalID, "charge", chargeRef, "err", err)
		} else {
			metrics.CountCharge(string(purposeRefund), "succeeded", s.policy.ValidationFeeCents)
		}
	}
	s.logger.Warn("rental start compensated", "rental_id", rentalID, "station_id", stationID, "cause", cause)
}

// POST /rentals/:rental_id/return
// 物理的な返却は済んでいるので、追加請求が失敗しても遷移は確定させる。
func (s *Service) EndRental(ctx context.Context, userID, rentalID string, in EndRentalRequest) (EndRentalResponse, error) {
	if strings.TrimSpace(rentalID) == "" {
		return EndRentalResponse{}, ErrInvalid("rentalId required")
	}
	if strings.TrimSpace(in.ReturnStationID) == "" {
		return EndRentalResponse{}, ErrInvalid("returnStationId required")
	}

	r, err := s.repo.GetRental(ctx, rentalID)
	if err != nil {
		return EndRentalResponse{}, err
	}
	if r.UserID != userID {
		return EndRentalResponse{}, ErrNotFound
	}
	if r.Status != StatusActive {
		return EndRentalResponse{}, ErrNotActive
	}

	now := s.clock.Now()
	minutes := elapsedMinutes(r.StartTime, now)
	q := s.policy.Quote(minutes, r.ValidationFeeCents)

	status := StatusCompleted
	event := points.EventRentalCompleted
	if q.Late.IsPurchase {
		status = StatusPurchased
		event = points.EventRentalPurchased
	}
	settlement := SettlementNone
	if q.AdditionalCents == 0 {
		settlement = SettlementNotRequired
	}

	rel, err := s.repo.ExecCloseRental(ctx, &Closure{
		RentalID:           r.RentalID,
		EndStationID:       in.ReturnStationID,
		EndTime:            now,
		TotalMinutes:       minutes,
		Status:             status,
		UsageAmountCents:   q.Usage.AmountDue,
		PenaltyAmountCents: q.Late.PenaltyAmount,
		SettlementStatus:   settlement,
	})
	if err != nil {
		return EndRentalResponse{}, fromInventoryErr(err)
	}
	if rel.Clamped {
		s.logger.Warn("return station already full", "rental_id", r.RentalID, "station_id", in.ReturnStationID)
	}
	metrics.CountRentalClosed(string(status))

	// 遷移は確定済み。ここから先は切断されても精算の記録まで済ませる
	ctx, cancel := detach(ctx)
	defer cancel()

	if q.AdditionalCents > 0 {
		settlement = s.settle(ctx, r, q)
	}

	awarded := 0
	if s.awards != nil {
		awarded, err = s.awards.Award(ctx, userID, event, r.RentalID)
		if err != nil {
			s.logger.Warn("points award failed", "rental_id", r.RentalID, "event", event, "err", err)
			awarded = 0
		}
	}

	s.logger.Info("rental closed",
		"rental_id", r.RentalID, "status", status, "minutes", minutes,
		"owed_cents", q.OwedCents, "additional_cents", q.AdditionalCents, "settlement", settlement)

	return EndRentalResponse{
		RentalID:          r.RentalID,
		Status:            status,
		DurationMinutes:   minutes,
		ValidationFeePaid: q.PrepaidCents,
		AdditionalCharge:  q.AdditionalCents,
		TotalCharge:       q.TotalCents(),
		IsLatePenalty:     q.Late.IsLate,
		IsPurchase:        q.Late.IsPurchase,
		Breakdown:         q.Breakdown,
		SettlementStatus:  settlement,
		PointsAwarded:     awarded,
	}, nil
}

// settle charges the balance after the rental is closed. 失敗は記録のみで呼び出し元には返さない
func (s *Service) settle(ctx context.Context, r *Rental, q pricing.Quote) SettlementStatus {
	purpose := payment.PurposeUsage
	if q.Late.IsLate {
		purpose = payment.PurposePenalty
	}

	ref, err := s.settlementCharge(ctx, r, purpose, q.AdditionalCents)
	st, detail := SettlementSucceeded, ""
	if err != nil {
		if errors.Is(err, errChargeExists) {
			s.logger.Warn("settlement charge already recorded", "rental_id", r.RentalID, "purpose", purpose)
			return SettlementNone
		}
		st, detail = SettlementFailed, payment.FailureCode(err)
		s.logger.Warn("settlement charge failed; rental closed without charge reference",
			"rental_id", r.RentalID, "purpose", purpose, "amount_cents", q.AdditionalCents, "err", err)
	}
	if err := s.repo.RecordSettlement(ctx, r.RentalID, st, ref, detail, s.clock.Now()); err != nil {
		s.logger.Error("settlement record failed", "rental_id", r.RentalID, "status", st, "charge", ref, "err", err)
	}
	return st
}

func (s *Service) settlementCharge(ctx context.Context, r *Rental, purpose payment.Purpose, amount int64) (string, error) {
	if !s.gw.Configured() {
		return "", payment.ErrNotConfigured
	}
	pm, err := s.repo.GetPaymentMethod(ctx, r.PaymentMethodID)
	if err != nil {
		return "", err
	}
	if pm == nil || pm.ProviderRef == "" {
		return "", payment.ErrCustomerOrMethodNotFound
	}
	c, err := s.repo.GetCustomer(ctx, r.UserID)
	if err != nil {
		return "", err
	}
	if !c.CustomerRef.Valid || c.CustomerRef.String == "" {
		return "", payment.ErrCustomerOrMethodNotFound
	}
	return s.charge(ctx, r.RentalID, purpose, amount, c.CustomerRef.String, pm.ProviderRef)
}

// detach は取消を引き継がない ctx を返す。値（request id 等）は残る
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}

// elapsedMinutes は切り上げ。返却は開始より後なので最低1分
func elapsedMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 1
	}
	m := int(math.Ceil(d.Minutes()))
	if m < 1 {
		m = 1
	}
	return m
}
