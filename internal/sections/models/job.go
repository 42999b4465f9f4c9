package models

import (
	"time"

	id "vetting/pkg/domain"
)

// JobEntry is one position in a user's job history. Position orders the
// list; index 0 is the latest.
type JobEntry struct {
	ID          id.JobID   `json:"id"`
	UserID      id.UserID  `json:"user_id"`
	Company     string     `json:"company"`
	Title       string     `json:"title"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description"`
}

// LatestJob picks the entry to show as "latest": a current position first,
// otherwise the one with the most recent start date, otherwise the first.
func LatestJob(jobs []JobEntry) *JobEntry {
	if len(jobs) == 0 {
		return nil
	}
	best := 0
	for i := range jobs {
		if jobs[i].Current && !jobs[best].Current {
			best = i
			continue
		}
		if jobs[i].Current != jobs[best].Current {
			continue
		}
		if jobs[i].StartDate != nil && (jobs[best].StartDate == nil || jobs[i].StartDate.After(*jobs[best].StartDate)) {
			best = i
		}
	}
	return &jobs[best]
}
