package handler

import (
	"vetting/internal/sections/models"
	id "vetting/pkg/domain"
)

type SectionsResponse struct {
	UserType     id.UserType         `json:"user_type"`
	Sections     *models.Sections    `json:"sections"`
	Completeness models.Completeness `json:"completeness"`
}

type JobHistoryResponse struct {
	Jobs []models.JobEntry `json:"jobs"`
}

// DocumentResponse holds the remaining document; null after the front image
// (and with it the document) was removed.
type DocumentResponse struct {
	Document *models.IdentityDocument `json:"document"`
}

type UploadResponse struct {
	Side models.Side `json:"side"`
	URL  string      `json:"url"`
}
