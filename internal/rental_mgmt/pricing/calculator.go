package pricing

type UsageCharge struct {
	Blocks             int
	AmountDue          int64
	CappedAtDailyLimit bool
}

type LatePenalty struct {
	IsLate        bool
	IsPurchase    bool
	PenaltyAmount int64
}

// CalculateUsageCharge prices a rental by 30-minute blocks.
//
// 24時間ごとの区切りで日額上限を適用する: 満了日は上限額、最後の端数日は
// ブロック計算して上限でクリップ。ブロックは常に切り上げ。
func (p Policy) CalculateUsageCharge(durationMinutes int) UsageCharge {
	if durationMinutes <= 0 {
		return UsageCharge{}
	}

	out := UsageCharge{Blocks: ceilDiv(durationMinutes, p.BlockMinutes)}

	fullDays := durationMinutes / minutesPerDay
	if fullDays > 0 {
		out.AmountDue = int64(fullDays) * p.DailyCapCents
		if int64(ceilDiv(minutesPerDay, p.BlockMinutes))*p.BlockRateCents > p.DailyCapCents {
			out.CappedAtDailyLimit = true
		}
	}

	rest := durationMinutes % minutesPerDay
	raw := int64(ceilDiv(rest, p.BlockMinutes)) * p.BlockRateCents
	if raw > p.DailyCapCents {
		raw = p.DailyCapCents
		out.CappedAtDailyLimit = true
	}
	out.AmountDue += raw
	return out
}

// CalculateLatePenalty: 閾値を超えたら利用料ではなく違約金＋買い取り額が全額になる
func (p Policy) CalculateLatePenalty(durationMinutes int) LatePenalty {
	if durationMinutes <= p.LateThresholdMinutes() {
		return LatePenalty{}
	}
	return LatePenalty{
		IsLate:        true,
		IsPurchase:    true,
		PenaltyAmount: p.PenaltyCents(),
	}
}
