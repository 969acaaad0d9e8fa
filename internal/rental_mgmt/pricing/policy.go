// Package pricing は貸出時間から請求額を計算する。I/O は持たない。
package pricing

import (
	"errors"
	"fmt"
)

const minutesPerDay = 24 * 60

// Policy holds the tariff. All amounts are in minor units (cents).
type Policy struct {
	Currency           string
	BlockMinutes       int
	BlockRateCents     int64
	DailyCapCents      int64
	LateThresholdDays  int
	LateRentalFeeCents int64
	PurchaseFeeCents   int64
	// 貸出開始時に与信確認として先に徴収する額（最初のブロック分に充当）
	ValidationFeeCents int64
}

// DefaultPolicy: 30分 €1.00、1日上限 €5.00、5日超過で €25 + €25 の買い取り
func DefaultPolicy() Policy {
	return Policy{
		Currency:           "eur",
		BlockMinutes:       30,
		BlockRateCents:     100,
		DailyCapCents:      500,
		LateThresholdDays:  5,
		LateRentalFeeCents: 2500,
		PurchaseFeeCents:   2500,
		ValidationFeeCents: 100,
	}
}

func (p Policy) Validate() error {
	var errs []error
	if p.Currency == "" {
		errs = append(errs, errors.New("currency is required"))
	}
	if p.BlockMinutes <= 0 {
		errs = append(errs, fmt.Errorf("block_minutes must be > 0, got %d", p.BlockMinutes))
	}
	if p.BlockRateCents < 0 || p.LateRentalFeeCents < 0 || p.PurchaseFeeCents < 0 || p.ValidationFeeCents < 0 {
		errs = append(errs, errors.New("amounts must be >= 0"))
	}
	if p.DailyCapCents < p.BlockRateCents {
		errs = append(errs, fmt.Errorf("daily_cap_cents (%d) must be >= block_rate_cents (%d)", p.DailyCapCents, p.BlockRateCents))
	}
	if p.LateThresholdDays <= 0 {
		errs = append(errs, fmt.Errorf("late_threshold_days must be > 0, got %d", p.LateThresholdDays))
	}
	if p.LateRentalFeeCents+p.PurchaseFeeCents <= 0 {
		errs = append(errs, errors.New("late penalty must be > 0"))
	}
	return errors.Join(errs...)
}

func (p Policy) LateThresholdMinutes() int { return p.LateThresholdDays * minutesPerDay }

func (p Policy) PenaltyCents() int64 { return p.LateRentalFeeCents + p.PurchaseFeeCents }

// DailyCapHours は上限に達するまでの時間（表示用）
func (p Policy) DailyCapHours() float64 {
	if p.BlockRateCents == 0 {
		return 0
	}
	blocks := ceilDiv64(p.DailyCapCents, p.BlockRateCents)
	return float64(blocks*int64(p.BlockMinutes)) / 60
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func ceilDiv64(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
