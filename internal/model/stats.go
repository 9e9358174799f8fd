package model

// SectionStats is the occupancy of one section.
type SectionStats struct {
	SectionID   uint64 `json:"section_id"`
	SectionName string `json:"section_name"`
	TotalSeats  int    `json:"total_seats"`
	Available   int    `json:"available"`
	Booked      int    `json:"booked"`
}

// TheaterStats aggregates seats and confirmed revenue for a theater.
type TheaterStats struct {
	TheaterID    uint64         `json:"theater_id"`
	TotalSeats   int            `json:"total_seats"`
	Available    int            `json:"available"`
	Booked       int            `json:"booked"`
	RevenueCents int64          `json:"revenue_cents"`
	Occupancy    float64        `json:"occupancy_pct"`
	Sections     []SectionStats `json:"sections"`
}
