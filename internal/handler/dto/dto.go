// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hostelreview/hostelreview/internal/model"
	"github.com/hostelreview/hostelreview/internal/telemetry"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HomeResponse is the hostel listing view.
type HomeResponse struct {
	Hostels    []*model.Hostel `json:"hostels"`
	IsTrending bool            `json:"isTrending"`
}

// HostelResponse is a hostel's page.
type HostelResponse struct {
	Hostel         *model.Hostel       `json:"hostel"`
	FloorPlans     []*model.FloorPlan  `json:"floorPlans"`
	Reviews        []*model.Review     `json:"reviews"`
	RoomDetails    []*model.RoomDetail `json:"roomDetails"`
	SimilarHostels []*model.Hostel     `json:"similarHostels"`
	IsTrending     bool                `json:"isTrending"`
	TrendingViews  int64               `json:"trendingViews"`
}

// FloorResponse is a floor plan with its reviews.
type FloorResponse struct {
	FloorPlan  *model.FloorPlan `json:"floorPlan"`
	Hostel     *model.Hostel    `json:"hostel"`
	Reviews    []*model.Review  `json:"reviews"`
	IsTrending bool             `json:"isTrending"`
}

// ReviewFormResponse is the data needed to render the review form.
type ReviewFormResponse struct {
	FloorPlan  *model.FloorPlan `json:"floorPlan"`
	Hostel     *model.Hostel    `json:"hostel"`
	IsTrending bool             `json:"isTrending"`
}

// TrendingResponse reports the current leaders. Either may be null.
type TrendingResponse struct {
	Page   *telemetry.PageScore   `json:"page"`
	Hostel *telemetry.EntityScore `json:"hostel"`
}

// SpeedTestResponse is the throughput probe result.
type SpeedTestResponse struct {
	Success       bool    `json:"success"`
	Error         string  `json:"error,omitempty"`
	DownloadSpeed float64 `json:"downloadSpeed"`
	UploadSpeed   float64 `json:"uploadSpeed"`
	Unit          string  `json:"unit,omitempty"`
}

// DashboardResponse is the signed-in user's dashboard.
type DashboardResponse struct {
	User    *model.User     `json:"user"`
	Reviews []*model.Review `json:"reviews"`
	Message string          `json:"message,omitempty"`
}

// ImageResponse describes a stored image.
type ImageResponse struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// ToImageResponse converts a HostelImage model to ImageResponse DTO.
func ToImageResponse(img *model.HostelImage) *ImageResponse {
	return &ImageResponse{
		Key:         img.Key,
		ContentType: img.ContentType,
		Size:        img.Size,
	}
}

// SubmitReviewRequest is the review submission body.
type SubmitReviewRequest struct {
	HostelID    int64   `json:"hostelId"`
	FloorID     int64   `json:"floorId"`
	RoomNumber  string  `json:"roomNumber"`
	JioSpeed    float64 `json:"jioSpeed"`
	AirtelSpeed float64 `json:"airtelSpeed"`
	VITSpeed    float64 `json:"vitSpeed"`
	Cleanliness int     `json:"cleanliness"`
	Remarks     string  `json:"remarks"`
}

// ErrInvalidFormField is returned when a form value is not a number.
var ErrInvalidFormField = errors.New("invalid form field")

// SubmitReviewRequestFromForm reads the review form. Field names follow
// the HTML form (hostelid, floorid, roomnumber, jio, airtel, vit,
// cleanliness, remarks). Blank numeric fields are zero.
func SubmitReviewRequestFromForm(form url.Values) (SubmitReviewRequest, error) {
	var req SubmitReviewRequest
	var err error

	if req.HostelID, err = formInt(form, "hostelid"); err != nil {
		return req, err
	}
	if req.FloorID, err = formInt(form, "floorid"); err != nil {
		return req, err
	}
	if req.JioSpeed, err = formFloat(form, "jio"); err != nil {
		return req, err
	}
	if req.AirtelSpeed, err = formFloat(form, "airtel"); err != nil {
		return req, err
	}
	if req.VITSpeed, err = formFloat(form, "vit"); err != nil {
		return req, err
	}
	cleanliness, err := formInt(form, "cleanliness")
	if err != nil {
		return req, err
	}
	req.Cleanliness = int(cleanliness)
	req.RoomNumber = form.Get("roomnumber")
	req.Remarks = form.Get("remarks")

	return req, nil
}

func formInt(form url.Values, name string) (int64, error) {
	raw := strings.TrimSpace(form.Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidFormField, name)
	}
	return v, nil
}

func formFloat(form url.Values, name string) (float64, error) {
	raw := strings.TrimSpace(form.Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidFormField, name)
	}
	return v, nil
}
