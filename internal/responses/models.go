package responses

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Response is one submission to a published form
type Response struct {
	ID           uuid.UUID      `json:"id"`
	FormID       uuid.UUID      `json:"form_id"`
	ResponseJSON map[string]any `json:"response_json"`
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Analytics holds the per-form counters
type Analytics struct {
	Views          int     `json:"views"`
	Submissions    int     `json:"submissions"`
	CompletionRate float64 `json:"completion_rate"`
}

// CompletionRate is submissions as a percentage of views, 0 without views.
// It is not capped: submissions made without a tracked view can push it
// past 100.
func CompletionRate(submissions, views int) float64 {
	if views <= 0 {
		return 0
	}
	return float64(submissions) / float64(views) * 100
}
