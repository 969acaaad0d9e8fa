package stations

import "time"

type StationResponse struct {
	StationID      string    `json:"stationId"`
	Name           string    `json:"name"`
	TotalCapacity  int       `json:"totalCapacity"`
	AvailableCount int       `json:"availableCount"`
	ReturnSlots    int       `json:"returnSlots"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type ListStationsResult struct {
	Items      []StationResponse `json:"items"`
	Total      int64             `json:"total"`
	NextOffset int               `json:"next_offset"`
}

func (s Station) toDTO() StationResponse {
	return StationResponse{
		StationID:      s.StationID,
		Name:           s.Name,
		TotalCapacity:  s.TotalCapacity,
		AvailableCount: s.AvailableCount,
		ReturnSlots:    s.ReturnSlots,
		UpdatedAt:      s.UpdatedAt,
	}
}
