// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// Hostel is a listing that users browse and review.
type Hostel struct {
	ID                 int64     `json:"hostel_id"`
	Name               string    `json:"name"`
	HostelType         string    `json:"hostel_type"`
	BedType            string    `json:"bed_type"`
	ChotaDhobiFacility bool      `json:"chota_dhobi_facility"`
	Description        string    `json:"description"`
	ImageURL           string    `json:"image_url"`
	CreatedAt          time.Time `json:"created_at"`
}

// Key returns the id in the form used by view telemetry.
func (h *Hostel) Key() string {
	return strconv.FormatInt(h.ID, 10)
}

// SimilarTo reports whether other shares the attributes used for
// "similar hostels" and is a different listing.
func (h *Hostel) SimilarTo(other *Hostel) bool {
	return other.ID != h.ID &&
		other.HostelType == h.HostelType &&
		other.BedType == h.BedType &&
		other.ChotaDhobiFacility == h.ChotaDhobiFacility
}

// FloorPlan is one floor of a hostel.
type FloorPlan struct {
	ID        int64     `json:"id"`
	HostelID  int64     `json:"hostel_id"`
	Floor     string    `json:"floor"`
	Block     string    `json:"block"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Floor is the short form of a floor plan used by floor pickers.
type Floor struct {
	ID    int64  `json:"id"`
	Floor string `json:"floor"`
}

// RoomDetail describes a room configuration offered by a hostel.
type RoomDetail struct {
	ID        int64     `json:"id"`
	HostelID  int64     `json:"hostel_id"`
	RoomType  string    `json:"room_type"`
	Occupancy int       `json:"occupancy"`
	AC        bool      `json:"ac"`
	Fee       int64     `json:"fee"`
	CreatedAt time.Time `json:"created_at"`
}

// HostelImage is an uploaded listing image stored in the blob bucket.
type HostelImage struct {
	ID          string    `json:"id"`
	HostelID    int64     `json:"hostel_id"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  *string   `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
