package rentals

import (
	"database/sql"
	"time"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/payment"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusPurchased Status = "purchased"
)

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusPurchased }

// SettlementStatus は返却時の追加請求の結果。failed のものは後続の突合で回収する
type SettlementStatus string

const (
	SettlementNone        SettlementStatus = "none"
	SettlementSucceeded   SettlementStatus = "succeeded"
	SettlementFailed      SettlementStatus = "failed"
	SettlementNotRequired SettlementStatus = "not_required"
)

type ChargeStatus string

const (
	ChargePending   ChargeStatus = "pending"
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargeFailed    ChargeStatus = "failed"
)

// 台帳上の用途。refund は開始競合時の返金のみ
const purposeRefund payment.Purpose = "refund"

type Rental struct {
	RentalID            string
	PowerbankID         string
	UserID              string
	StartStationID      string
	EndStationID        sql.NullString
	StartTime           time.Time
	EndTime             sql.NullTime
	Status              Status
	TotalMinutes        int
	UsageAmountCents    int64
	PenaltyAmountCents  int64
	ValidationFeeCents  int64
	PaymentMethodID     string
	ValidationChargeRef sql.NullString
	UsageChargeRef      sql.NullString
	SettlementStatus    SettlementStatus
	SettlementError     sql.NullString
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type PaymentMethod struct {
	PaymentMethodID string
	UserID          string
	ProviderRef     string
	Type            string
	Brand           sql.NullString
	Last4           sql.NullString
	Status          string
	IsDefault       bool
}

func (m *PaymentMethod) Usable() bool { return m != nil && m.Status == "active" && m.ProviderRef != "" }

type Customer struct {
	UserID      string
	Email       sql.NullString
	CustomerRef sql.NullString
}

type Charge struct {
	ChargeID    string
	RentalID    string
	Purpose     payment.Purpose
	AmountCents int64
	Currency    string
	ProviderRef sql.NullString
	Status      ChargeStatus
	FailureCode sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Closure は active → completed|purchased の遷移で書き込む値
type Closure struct {
	RentalID           string
	EndStationID       string
	EndTime            time.Time
	TotalMinutes       int
	Status             Status
	UsageAmountCents   int64
	PenaltyAmountCents int64
	SettlementStatus   SettlementStatus
}

type Page struct {
	Limit  int
	Offset int
	Order  string // "asc" or "desc"
}

type RentalFilter struct {
	Status *Status
}
