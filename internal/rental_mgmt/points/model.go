package points

import "time"

type Event string

const (
	EventRentalCompleted Event = "rental_completed"
	EventRentalPurchased Event = "rental_purchased"
)

// Rules: イベントごとの付与ポイント。0 のイベントは付与しない
type Rules map[Event]int

type Entry struct {
	EntryULID string
	UserID    string
	Event     Event
	RefID     string
	Points    int
	CreatedAt time.Time
}

type EntryResponse struct {
	EntryID   string    `json:"entryId"`
	Event     Event     `json:"event"`
	RefID     string    `json:"refId"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

type SummaryResponse struct {
	UserID  string          `json:"userId"`
	Balance int             `json:"balance"`
	Recent  []EntryResponse `json:"recent"`
}
