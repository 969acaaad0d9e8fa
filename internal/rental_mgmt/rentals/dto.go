package rentals

import (
	"time"

	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/pricing"
)

// ---------- requests ----------

type StartRentalRequest struct {
	StationID       string `json:"stationId" binding:"required,resource_id"`
	PaymentMethodID string `json:"paymentMethodId" binding:"omitempty,resource_id"`
	// 省略時はサーバー側で払い出す（ドック連携は別系統）
	PowerbankID string `json:"powerbankId" binding:"omitempty,resource_id"`
}

type EndRentalRequest struct {
	// POST /rentals/end のときだけ必須
	RentalID        string `json:"rentalId" binding:"omitempty,resource_id"`
	ReturnStationID string `json:"returnStationId" binding:"required,resource_id"`
}

// ---------- responses ----------
// 金額はすべて最小通貨単位（cents）

type PricingInfo struct {
	Currency          string  `json:"currency"`
	RatePerHalfHour   int64   `json:"ratePerHalfHour"`
	DailyCap          int64   `json:"dailyCap"`
	DailyCapHours     float64 `json:"dailyCapHours"`
	LatePenaltyDays   int     `json:"latePenaltyDays"`
	LatePenaltyAmount int64   `json:"latePenaltyAmount"`
}

type StartRentalResponse struct {
	RentalID             string      `json:"rentalId"`
	PowerbankID          string      `json:"powerbankId"`
	StationID            string      `json:"stationId"`
	StartTime            time.Time   `json:"startTime"`
	ValidationFeeCharged bool        `json:"validationFeeCharged"`
	ValidationAmount     int64       `json:"validationAmount"`
	Pricing              PricingInfo `json:"pricing"`
}

type EndRentalResponse struct {
	RentalID          string           `json:"rentalId"`
	Status            Status           `json:"status"`
	DurationMinutes   int              `json:"durationMinutes"`
	ValidationFeePaid int64            `json:"validationFeePaid"`
	AdditionalCharge  int64            `json:"additionalCharge"`
	TotalCharge       int64            `json:"totalCharge"`
	IsLatePenalty     bool             `json:"isLatePenalty"`
	IsPurchase        bool             `json:"isPurchase"`
	Breakdown         []pricing.Line   `json:"breakdown"`
	SettlementStatus  SettlementStatus `json:"settlementStatus"`
	PointsAwarded     int              `json:"pointsAwarded"`
}

type ChargeResponse struct {
	ChargeID    string    `json:"chargeId"`
	Purpose     string    `json:"purpose"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	ProviderRef *string   `json:"providerRef,omitempty"`
	FailureCode *string   `json:"failureCode,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type RentalResponse struct {
	RentalID           string           `json:"rentalId"`
	PowerbankID        string           `json:"powerbankId"`
	Status             Status           `json:"status"`
	StartStationID     string           `json:"startStationId"`
	EndStationID       *string          `json:"endStationId,omitempty"`
	StartTime          time.Time        `json:"startTime"`
	EndTime            *time.Time       `json:"endTime,omitempty"`
	TotalMinutes       int              `json:"totalMinutes"`
	ValidationFeeCents int64            `json:"validationFeeCents"`
	UsageAmountCents   int64            `json:"usageAmountCents"`
	PenaltyAmountCents int64            `json:"penaltyAmountCents"`
	SettlementStatus   SettlementStatus `json:"settlementStatus"`
	// active のときだけ: 現時点で返却した場合の見積もり
	CurrentQuote *QuoteResponse   `json:"currentQuote,omitempty"`
	Charges      []ChargeResponse `json:"charges,omitempty"`
}

type QuoteResponse struct {
	ElapsedMinutes   int            `json:"elapsedMinutes"`
	OwedCents        int64          `json:"owedCents"`
	AdditionalCents  int64          `json:"additionalCents"`
	IsLatePenalty    bool           `json:"isLatePenalty"`
	MinutesUntilLate int            `json:"minutesUntilLate"`
	Breakdown        []pricing.Line `json:"breakdown"`
}

type ListRentalsResult struct {
	Items      []RentalResponse `json:"items"`
	Total      int64            `json:"total"`
	NextOffset int              `json:"next_offset"` // 0=終端
}

// 貸出中は件数が少ないのでページングしない
type ActiveRentalsResult struct {
	Items []RentalResponse `json:"items"`
}

func pricingInfo(p pricing.Policy) PricingInfo {
	return PricingInfo{
		Currency:          p.Currency,
		RatePerHalfHour:   p.BlockRateCents,
		DailyCap:          p.DailyCapCents,
		DailyCapHours:     p.DailyCapHours(),
		LatePenaltyDays:   p.LateThresholdDays,
		LatePenaltyAmount: p.PenaltyCents(),
	}
}
