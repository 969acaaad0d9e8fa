package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type Purpose string

const (
	PurposeValidation Purpose = "validation"
	PurposeUsage      Purpose = "usage"
	PurposePenalty    Purpose = "penalty"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	SecretKey string
	// テスト・モックサーバー向け。空なら https://api.stripe.com
	BaseURL string
	Timeout time.Duration
}

type ChargeRequest struct {
	CustomerRef      string
	PaymentMethodRef string
	AmountMinor      int64
	Currency         string
	Purpose          Purpose
	RentalID         string
	IdempotencyKey   string
	Description      string
}

type ChargeResult struct {
	ChargeID string
	Status   string
}

type ChargeInfo struct {
	ChargeID string            `json:"chargeId"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// Gateway wraps Stripe PaymentIntents for off-session charges against a
// stored customer credential.
type Gateway struct {
	api     *client.API
	timeout time.Duration
	logger  *slog.Logger
}

func NewGateway(cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	g := &Gateway{timeout: timeout, logger: logger}
	if cfg.SecretKey == "" {
		logger.Warn("stripe secret key is empty; payment processing disabled")
		return g
	}

	bc := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BaseURL != "" {
		bc.URL = stripe.String(cfg.BaseURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, bc)

	g.api = &client.API{}
	g.api.Init(cfg.SecretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return g
}

func (g *Gateway) Configured() bool { return g != nil && g.api != nil }

// Charge creates and confirms an off-session PaymentIntent. 3DS 等の対話は不可なので
// requires_action は拒否として扱う。
func (g *Gateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if !g.Configured() {
		return ChargeResult{}, ErrNotConfigured
	}
	if req.AmountMinor <= 0 {
		return ChargeResult{}, fmt.Errorf("%w: amount must be > 0", ErrChargeRejected)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(req.Currency),
		Customer:      stripe.String(req.CustomerRef),
		PaymentMethod: stripe.String(req.PaymentMethodRef),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	params.AddMetadata("purpose", string(req.Purpose))
	params.AddMetadata("rental_id", req.RentalID)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		mapped := mapError(ctx, err)
		g.logger.Warn("stripe charge failed",
			"rental_id", req.RentalID, "purpose", req.Purpose, "amount", req.AmountMinor, "err", mapped)
		return ChargeResult{}, mapped
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
		return ChargeResult{ChargeID: pi.ID, Status: string(pi.Status)}, nil
	default:
		return ChargeResult{}, &ChargeError{
			Kind:    ErrCardDeclined,
			Code:    string(pi.Status),
			Message: "payment intent " + pi.ID + " was not completed off-session",
		}
	}
}

// CreateCustomer registers a processor customer for the user and attaches the
// given stored payment method to it.
func (g *Gateway) CreateCustomer(ctx context.Context, userID, email, paymentMethodRef string) (string, error) {
	if !g.Configured() {
		return "", ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.CustomerParams{}
	if email != "" {
		params.Email = stripe.String(email)
	}
	if paymentMethodRef != "" {
		params.PaymentMethod = stripe.String(paymentMethodRef)
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)
	params.SetIdempotencyKey("customer_" + userID)

	cus, err := g.api.Customers.New(params)
	if err != nil {
		return "", mapError(ctx, err)
	}
	return cus.ID, nil
}

func (g *Gateway) GetCharge(ctx context.Context, chargeID string) (ChargeInfo, error) {
	if !g.Configured() {
		return ChargeInfo{}, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(chargeID, params)
	if err != nil {
		return ChargeInfo{}, mapError(ctx, err)
	}
	return ChargeInfo{
		ChargeID: pi.ID,
		Status:   string(pi.Status),
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
		Metadata: pi.Metadata,
	}, nil
}

// Refund returns a captured charge in full.
func (g *Gateway) Refund(ctx context.Context, chargeID, idempotencyKey string) error {
	if !g.Configured() {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(chargeID),
		Reason:        stripe.String(string(stripe.RefundReasonDuplicate)),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	if _, err := g.api.Refunds.New(params); err != nil {
		return mapError(ctx, err)
	}
	return nil
}

func mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return &ChargeError{Kind: ErrGatewayUnavailable, Code: "timeout", Message: err.Error()}
	}

	var se *stripe.Error
	if !errors.As(err, &se) {
		// 接続エラー等
		return &ChargeError{Kind: ErrGatewayUnavailable, Message: err.Error()}
	}

	ce := &ChargeError{Code: string(se.Code), Message: se.Msg}
	switch {
	case se.Type == stripe.ErrorTypeCard, se.Code == stripe.ErrorCodeAuthenticationRequired:
		ce.Kind = ErrCardDeclined
		if se.DeclineCode != "" {
			ce.Code = string(se.DeclineCode)
		}
	case se.Code == stripe.ErrorCodeResourceMissing || se.HTTPStatusCode == http.StatusNotFound:
		ce.Kind = ErrCustomerOrMethodNotFound
	case se.HTTPStatusCode == http.StatusUnauthorized:
		ce.Kind = ErrNotConfigured
	case se.HTTPStatusCode >= 500 || se.HTTPStatusCode == http.StatusTooManyRequests:
		ce.Kind = ErrGatewayUnavailable
	default:
		ce.Kind = ErrChargeRejected
	}
	return ce
}
