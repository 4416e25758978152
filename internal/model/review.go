package model

import "time"

// Cleanliness score bounds.
const (
	MinCleanliness = 1
	MaxCleanliness = 5

	// MaxRemarksLength is the longest remarks text accepted.
	MaxRemarksLength = 1000
)

// Review is a room review. At most one review exists per hostel and room number.
type Review struct {
	ID               string    `json:"id"`
	HostelID         int64     `json:"hostel_id"`
	FloorID          int64     `json:"floor_id"`
	RoomNumber       string    `json:"room_number"`
	JioSpeed         float64   `json:"jio_speed"`
	AirtelSpeed      float64   `json:"airtel_speed"`
	VITWifiSpeed     float64   `json:"vit_wifi_speed"`
	CleanlinessScore int       `json:"cleanliness_score"`
	Remarks          string    `json:"remarks"`
	SubmittedBy      *string   `json:"submitted_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
