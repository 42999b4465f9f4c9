package models

import (
	"time"
)

// EndpointClass groups routes that share a request budget.
type EndpointClass string

const (
	// ClassWrite covers section autosaves and submissions.
	ClassWrite EndpointClass = "write"
	// ClassUpload covers document image uploads.
	ClassUpload EndpointClass = "upload"
	// ClassAdmin covers single admin decisions.
	ClassAdmin EndpointClass = "admin"
	// ClassBulk covers bulk admin actions and exports.
	ClassBulk EndpointClass = "bulk"
)

func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassWrite, ClassUpload, ClassAdmin, ClassBulk:
		return true
	}
	return false
}

// Limit is a request budget over a sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits are per caller. Autosave fires on every debounced edit so
// writes get the largest budget.
func DefaultLimits() map[EndpointClass]Limit {
	return map[EndpointClass]Limit{
		ClassWrite:  {Requests: 120, Window: time.Minute},
		ClassUpload: {Requests: 20, Window: time.Minute},
		ClassAdmin:  {Requests: 120, Window: time.Minute},
		ClassBulk:   {Requests: 10, Window: time.Minute},
	}
}

// RateLimitResult is the outcome of one check against a bucket.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set when denied
}

type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"error_description"`
	RetryAfter int    `json:"retry_after"`
}
