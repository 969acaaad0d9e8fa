package stations

import "time"

// Station は stations テーブルの1行（ドック1台分の在庫）
type Station struct {
	StationID      string
	Name           string
	TotalCapacity  int
	AvailableCount int
	ReturnSlots    int
	UpdatedAt      time.Time
}

type Page struct {
	Limit  int
	Offset int
}

type StationFilter struct {
	OnlyAvailable bool
}

// Release は返却時の在庫加算結果
type Release struct {
	StationID string
	// 既に満杯だったため加算しなかった
	Clamped bool
}
