package rentals

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/db"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/payment"
	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/points"
	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/stations"
)

// ---------- clock ----------

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// ---------- inventory ----------

type slot struct{ available, capacity int }

type memInventory struct {
	mu       sync.Mutex
	stations map[string]*slot
}

func newMemInventory() *memInventory { return &memInventory{stations: map[string]*slot{}} }

func (m *memInventory) add(id string, available, capacity int) {
	m.mu.Lock()
	m.stations[id] = &slot{available: available, capacity: capacity}
	m.mu.Unlock()
}

func (m *memInventory) available(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stations[id].available
}

func (m *memInventory) ReserveSlot(_ context.Context, _ db.DBTX, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stations[id]
	if !ok {
		return stations.ErrStationNotFound
	}
	if s.available <= 0 {
		return stations.ErrInsufficientInventory
	}
	s.available--
	return nil
}

func (m *memInventory) ReleaseSlot(_ context.Context, _ db.DBTX, id string) (stations.Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stations[id]
	if !ok {
		return stations.Release{}, stations.ErrStationNotFound
	}
	if s.available >= s.capacity {
		return stations.Release{StationID: id, Clamped: true}, nil
	}
	s.available++
	return stations.Release{StationID: id}, nil
}

// ---------- repository ----------

type memRepo struct {
	mu        sync.Mutex
	inv       *memInventory
	methods   map[string]*PaymentMethod
	customers map[string]*Customer
	rentals   map[string]*Rental
	charges   map[string]*Charge // key: rental_id|purpose

	insertRentalFn func(r *Rental) error
	insertChargeFn func(c *Charge) error
}

func newMemRepo(inv *memInventory) *memRepo {
	return &memRepo{
		inv:       inv,
		methods:   map[string]*PaymentMethod{},
		customers: map[string]*Customer{},
		rentals:   map[string]*Rental{},
		charges:   map[string]*Charge{},
	}
}

func (m *memRepo) addMethod(pm PaymentMethod) { m.methods[pm.PaymentMethodID] = &pm }

func (m *memRepo) rental(id string) Rental {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rentals[id]
}

func (m *memRepo) charge(rentalID string, p payment.Purpose) (Charge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.charges[rentalID+"|"+string(p)]
	if !ok {
		return Charge{}, false
	}
	return *c, true
}

func (m *memRepo) GetPaymentMethod(_ context.Context, id string) (*PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pm, ok := m.methods[id]; ok {
		cp := *pm
		return &cp, nil
	}
	return nil, nil
}

func (m *memRepo) DefaultPaymentMethod(_ context.Context, userID string) (*PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *PaymentMethod
	for _, pm := range m.methods {
		if pm.UserID != userID || pm.Status != "active" {
			continue
		}
		if found == nil || pm.IsDefault {
			cp := *pm
			found = &cp
		}
	}
	return found, nil
}

func (m *memRepo) GetCustomer(_ context.Context, userID string) (*Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.customers[userID]; ok {
		cp := *c
		return &cp, nil
	}
	return &Customer{UserID: userID}, nil
}

func (m *memRepo) SetCustomerRef(_ context.Context, userID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[userID] = &Customer{UserID: userID, CustomerRef: sql.NullString{String: ref, Valid: true}}
	return nil
}

func (m *memRepo) HasActiveRental(_ context.Context, powerbankID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rentals {
		if r.PowerbankID == powerbankID && r.Status == StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) InsertRental(_ context.Context, r *Rental) error {
	if m.insertRentalFn != nil {
		if err := m.insertRentalFn(r); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.rentals {
		if x.PowerbankID == r.PowerbankID && x.Status == StatusActive {
			return ErrPowerbankInUse
		}
	}
	cp := *r
	m.rentals[r.RentalID] = &cp
	return nil
}

func (m *memRepo) GetRental(_ context.Context, id string) (*Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rentals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// Txと同じく、在庫戻しが失敗したら遷移も残さない
func (m *memRepo) ExecCloseRental(ctx context.Context, c *Closure) (stations.Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rentals[c.RentalID]
	if !ok || r.Status != StatusActive {
		return stations.Release{}, ErrNotActive
	}
	rel, err := m.inv.ReleaseSlot(ctx, nil, c.EndStationID)
	if err != nil {
		return stations.Release{}, err
	}
	r.Status = c.Status
	r.EndStationID = sql.NullString{String: c.EndStationID, Valid: true}
	r.EndTime = sql.NullTime{Time: c.EndTime, Valid: true}
	r.TotalMinutes = c.TotalMinutes
	r.UsageAmountCents = c.UsageAmountCents
	r.PenaltyAmountCents = c.PenaltyAmountCents
	r.SettlementStatus = c.SettlementStatus
	return rel, nil
}

// 取り消された ctx では DB と同じく書き込まない
func (m *memRepo) RecordSettlement(ctx context.Context, id string, st SettlementStatus, ref, detail string, _ time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rentals[id]
	r.SettlementStatus = st
	r.UsageChargeRef = sql.NullString{String: ref, Valid: ref != ""}
	r.SettlementError = sql.NullString{String: detail, Valid: detail != ""}
	return nil
}

func (m *memRepo) InsertCharge(_ context.Context, c *Charge) error {
	if m.insertChargeFn != nil {
		if err := m.insertChargeFn(c); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := c.RentalID + "|" + string(c.Purpose)
	if _, ok := m.charges[k]; ok {
		return errChargeExists
	}
	cp := *c
	m.charges[k] = &cp
	return nil
}

func (m *memRepo) FinishCharge(ctx context.Context, id string, st ChargeStatus, ref, code string, _ time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.charges {
		if c.ChargeID == id {
			c.Status = st
			c.ProviderRef = sql.NullString{String: ref, Valid: ref != ""}
			c.FailureCode = sql.NullString{String: code, Valid: code != ""}
			return nil
		}
	}
	return fmt.Errorf("charge %s not found", id)
}

// ---------- gateway ----------

type fakeGateway struct {
	mu         sync.Mutex
	configured bool
	chargeFn   func(req payment.ChargeRequest) (payment.ChargeResult, error)
	customerFn func(userID, email, pmRef string) (string, error)
	charges    []payment.ChargeRequest
	refunds    []string
	seq        int
}

func (g *fakeGateway) Configured() bool { return g.configured }

func (g *fakeGateway) Charge(_ context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	g.mu.Lock()
	g.charges = append(g.charges, req)
	g.seq++
	id := fmt.Sprintf("pi_%d", g.seq)
	fn := g.chargeFn
	g.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return payment.ChargeResult{ChargeID: id, Status: "succeeded"}, nil
}

func (g *fakeGateway) CreateCustomer(_ context.Context, userID, email, pmRef string) (string, error) {
	if g.customerFn != nil {
		return g.customerFn(userID, email, pmRef)
	}
	return "cus_" + userID, nil
}

func (g *fakeGateway) Refund(ctx context.Context, chargeID, _ string) error {
	if err := ctx.Err(); err != nil {
		return payment.ErrGatewayUnavailable
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, chargeID)
	return nil
}

func (g *fakeGateway) chargesFor(p payment.Purpose) []payment.ChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []payment.ChargeRequest
	for _, c := range g.charges {
		if c.Purpose == p {
			out = append(out, c)
		}
	}
	return out
}

// ---------- points ----------

type fakeAwarder struct {
	mu     sync.Mutex
	err    error
	events []points.Event
}

func (a *fakeAwarder) Award(_ context.Context, _ string, ev points.Event, _ string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return 0, a.err
	}
	a.events = append(a.events, ev)
	if ev == points.EventRentalCompleted {
		return 10, nil
	}
	return 0, nil
}
