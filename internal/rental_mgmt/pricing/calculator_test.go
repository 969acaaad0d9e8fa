package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateUsageCharge(t *testing.T) {
	p := DefaultPolicy()

	cases := []struct {
		name    string
		minutes int
		blocks  int
		amount  int64
		capped  bool
	}{
		{"zero", 0, 0, 0, false},
		{"one minute", 1, 1, 100, false},
		{"29 minutes", 29, 1, 100, false},
		{"exactly one block", 30, 1, 100, false},
		{"just over one block", 31, 2, 200, false},
		{"two hours", 120, 4, 400, false},
		{"cap reached", 150, 5, 500, false},
		{"over cap", 151, 6, 500, true},
		{"whole day", 1440, 48, 500, true},
		{"day plus 10 minutes", 1450, 49, 600, true},
		{"three days", 3 * 1440, 144, 1500, true},
		{"five days", 7200, 240, 2500, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.CalculateUsageCharge(tc.minutes)
			require.Equal(t, tc.blocks, got.Blocks)
			require.Equal(t, tc.amount, got.AmountDue)
			require.Equal(t, tc.capped, got.CappedAtDailyLimit)
		})
	}
}

func TestUsageChargeNeverExceedsCapPerDay(t *testing.T) {
	p := DefaultPolicy()
	for d := 1; d <= p.LateThresholdMinutes(); d++ {
		got := p.CalculateUsageCharge(d)
		days := int64(d/minutesPerDay) + 1
		require.LessOrEqual(t, got.AmountDue, days*p.DailyCapCents, "minutes=%d", d)

		if raw := int64(ceilDiv(d, p.BlockMinutes)) * p.BlockRateCents; raw <= p.DailyCapCents {
			require.Equal(t, raw, got.AmountDue, "minutes=%d", d)
		}
	}
}

func TestCalculateLatePenalty(t *testing.T) {
	p := DefaultPolicy()

	require.Equal(t, LatePenalty{}, p.CalculateLatePenalty(7200))

	got := p.CalculateLatePenalty(7201)
	require.True(t, got.IsLate)
	require.True(t, got.IsPurchase)
	require.Equal(t, int64(5000), got.PenaltyAmount)

	require.Equal(t, got, p.CalculateLatePenalty(14400))
}

func TestQuote(t *testing.T) {
	p := DefaultPolicy()

	t.Run("short rental covered by validation fee", func(t *testing.T) {
		q := p.Quote(29, 100)
		require.Equal(t, int64(100), q.OwedCents)
		require.Zero(t, q.AdditionalCents)
		require.Equal(t, int64(100), q.TotalCents())
		require.False(t, q.Late.IsLate)
	})

	t.Run("half fee prepaid", func(t *testing.T) {
		q := p.Quote(29, 50)
		require.Equal(t, int64(50), q.AdditionalCents)
		require.Equal(t, int64(100), q.TotalCents())
	})

	t.Run("late return replaces usage", func(t *testing.T) {
		q := p.Quote(14400, 100)
		require.True(t, q.Late.IsPurchase)
		require.Equal(t, int64(5000), q.OwedCents)
		require.Equal(t, int64(4900), q.AdditionalCents)
		require.Equal(t, int64(5000), q.TotalCents())
		require.Zero(t, q.Usage.AmountDue)
		require.Len(t, q.Breakdown, 3)
	})

	t.Run("breakdown is rendered", func(t *testing.T) {
		q := p.Quote(90, 100)
		require.NotEmpty(t, q.Breakdown)
		for _, l := range q.Breakdown {
			require.NotEmpty(t, l.Display)
			require.NotEmpty(t, l.Label)
		}
	})
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.BlockMinutes = 0
	require.Error(t, p.Validate())

	p = DefaultPolicy()
	p.DailyCapCents = 50
	require.Error(t, p.Validate())

	p = DefaultPolicy()
	p.LateRentalFeeCents, p.PurchaseFeeCents = 0, 0
	require.Error(t, p.Validate())
}

func TestDailyCapHours(t *testing.T) {
	require.InDelta(t, 2.5, DefaultPolicy().DailyCapHours(), 0.0001)
}
