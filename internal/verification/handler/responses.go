package handler

import "vetting/internal/verification/models"

type RecordResponse struct {
	Verification *models.Record `json:"verification"`
}

type HistoryResponse struct {
	Entries []models.AuditLogEntry `json:"entries"`
}
