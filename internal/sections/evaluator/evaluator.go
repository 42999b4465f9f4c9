// Package evaluator derives per-section completeness and summaries from saved
// section data. It is pure: no I/O and no clock.
package evaluator

import (
	"fmt"
	"strings"

	"vetting/internal/sections/models"
	id "vetting/pkg/domain"
)

const (
	summaryNotStarted  = "Not started"
	summaryIncomplete  = "Incomplete"
	summaryNotRequired = "Not required"
	summaryNoDocument  = "Not uploaded"
	summaryNoPositions = "No positions added"
)

// Evaluate reports the completeness of every section for a user of the given
// type. Education and job history only count when the type requires history.
func Evaluate(s models.Sections, userType id.UserType) models.Completeness {
	requiresHistory := userType.RequiresHistory()

	out := models.Completeness{
		PersonalInfo: PersonalInfo(s.PersonalInfo),
		Document:     Document(s.Document),
	}
	if requiresHistory {
		out.Education = Education(s.Education)
		out.JobHistory = JobHistory(s.JobHistory)
	} else {
		out.Education = models.SectionStatus{IsComplete: true, Summary: summaryNotRequired}
		out.JobHistory = models.SectionStatus{IsComplete: true, Summary: summaryNotRequired}
	}

	out.ProfileComplete = out.PersonalInfo.IsComplete &&
		out.Education.IsComplete && out.JobHistory.IsComplete
	out.IsAllComplete = out.ProfileComplete && out.Document.IsComplete
	return out
}

func PersonalInfo(p *models.PersonalInfo) models.SectionStatus {
	if p == nil {
		return models.SectionStatus{Summary: summaryNotStarted}
	}
	if !p.IsComplete() {
		return models.SectionStatus{Summary: summaryIncomplete}
	}
	return models.SectionStatus{IsComplete: true, Summary: p.FullName()}
}

func Education(e *models.Education) models.SectionStatus {
	if e == nil {
		return models.SectionStatus{Summary: summaryNotStarted}
	}
	if !e.IsComplete() {
		return models.SectionStatus{Summary: summaryIncomplete}
	}
	school := strings.TrimSpace(e.SchoolName)
	if degree := strings.TrimSpace(e.Degree); degree != "" {
		return models.SectionStatus{IsComplete: true, Summary: degree + " at " + school}
	}
	return models.SectionStatus{IsComplete: true, Summary: e.Level.Label() + " at " + school}
}

func Document(d *models.IdentityDocument) models.SectionStatus {
	if d == nil || (!d.HasFront() && !d.HasBack()) {
		return models.SectionStatus{Summary: summaryNoDocument}
	}
	label := d.DocumentType.Label()
	switch {
	case d.IsComplete():
		return models.SectionStatus{IsComplete: true, Summary: label + ": front and back uploaded"}
	case d.HasFront():
		return models.SectionStatus{Summary: label + ": back image missing"}
	default:
		return models.SectionStatus{Summary: label + ": front image missing"}
	}
}

func JobHistory(jobs []models.JobEntry) models.SectionStatus {
	if len(jobs) == 0 {
		return models.SectionStatus{Summary: summaryNoPositions}
	}
	noun := "positions"
	if len(jobs) == 1 {
		noun = "position"
	}
	latest := models.LatestJob(jobs)
	return models.SectionStatus{
		IsComplete: true,
		Summary: fmt.Sprintf("%d %s, latest: %s at %s", len(jobs), noun,
			strings.TrimSpace(latest.Title), strings.TrimSpace(latest.Company)),
	}
}
