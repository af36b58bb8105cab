package dto

import "time"

// ImportTextRequest posts a feed pasted as text
//
//	@Description	Reconciliation import from a text body
type ImportTextRequest struct {
	Profile       string `json:"profile" binding:"required" example:"expense-sheet"`
	Content       string `json:"content" binding:"required"`
	FileName      string `json:"file_name" example:"tolls-2026-01.csv"`
	BankAccountID string `json:"bank_account" binding:"omitempty,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	CategoryID    string `json:"category" binding:"omitempty,uuid"`
}

// ImportURLRequest posts a feed the server downloads first
//
//	@Description	Reconciliation import from a remote CSV
type ImportURLRequest struct {
	Profile       string `json:"profile" binding:"required" example:"bank-feed"`
	URL           string `json:"url" binding:"required,url" example:"https://bank.example.com/exports/2026-01.csv"`
	BankAccountID string `json:"bank_account" binding:"omitempty,uuid"`
	CategoryID    string `json:"category" binding:"omitempty,uuid"`
}

// ImportUploadForm is the multipart form of a file import
type ImportUploadForm struct {
	Profile       string `form:"profile" binding:"required"`
	BankAccountID string `form:"bank_account" binding:"omitempty,uuid"`
	CategoryID    string `form:"category" binding:"omitempty,uuid"`
}

// ArchiveLinkResponse is a time-limited link to an archived raw feed
//
//	@Description	Download link for an archived feed
type ArchiveLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImportProfilesResponse lists the feed layouts the importer accepts
type ImportProfilesResponse struct {
	Profiles []string `json:"profiles"`
}
