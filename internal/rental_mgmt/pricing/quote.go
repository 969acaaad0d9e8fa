package pricing

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Line struct {
	Label       string `json:"label"`
	AmountCents int64  `json:"amountCents"`
	Display     string `json:"display"`
}

// Quote is the settlement of one closed rental.
type Quote struct {
	DurationMinutes int
	Usage           UsageCharge
	Late            LatePenalty
	OwedCents       int64
	PrepaidCents    int64
	AdditionalCents int64
	Breakdown       []Line
}

// TotalCents は利用者が最終的に支払う額（先払い分を含む）
func (q Quote) TotalCents() int64 { return q.PrepaidCents + q.AdditionalCents }

func (p Policy) Quote(durationMinutes int, prepaidCents int64) Quote {
	q := Quote{
		DurationMinutes: durationMinutes,
		PrepaidCents:    prepaidCents,
		Late:            p.CalculateLatePenalty(durationMinutes),
	}

	f := newFormatter(p.Currency)
	if q.Late.IsLate {
		q.OwedCents = q.Late.PenaltyAmount
		q.Breakdown = append(q.Breakdown,
			f.line(fmt.Sprintf("late return (> %d days)", p.LateThresholdDays), p.LateRentalFeeCents),
			f.line("power bank purchase", p.PurchaseFeeCents),
		)
	} else {
		q.Usage = p.CalculateUsageCharge(durationMinutes)
		q.OwedCents = q.Usage.AmountDue
		label := fmt.Sprintf("%d x %d min", q.Usage.Blocks, p.BlockMinutes)
		if q.Usage.CappedAtDailyLimit {
			label += " (daily cap applied)"
		}
		q.Breakdown = append(q.Breakdown, f.line(label, q.Usage.AmountDue))
	}

	if prepaidCents > 0 {
		q.Breakdown = append(q.Breakdown, f.line("validation fee already paid", -prepaidCents))
	}
	q.AdditionalCents = q.OwedCents - prepaidCents
	if q.AdditionalCents < 0 {
		q.AdditionalCents = 0
	}
	return q
}

type formatter struct {
	unit    currency.Unit
	ok      bool
	printer *message.Printer
}

func newFormatter(code string) formatter {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	return formatter{unit: unit, ok: err == nil, printer: message.NewPrinter(language.English)}
}

func (f formatter) line(label string, cents int64) Line {
	return Line{Label: label, AmountCents: cents, Display: f.format(cents)}
}

func (f formatter) format(cents int64) string {
	amount := float64(cents) / 100
	if !f.ok {
		return fmt.Sprintf("%.2f", amount)
	}
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount)))
}

// Format renders minor units with the policy's currency symbol.
func (p Policy) Format(cents int64) string {
	return newFormatter(p.Currency).format(cents)
}
