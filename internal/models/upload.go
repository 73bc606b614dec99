package models

import "time"

// Upload is the stored metadata of an uploaded document. Parsing and
// analysis happen elsewhere; invitations and shareable links reference
// uploads by id.
type Upload struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	Filename    string    `json:"filename" db:"filename"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	RowCount    int       `json:"row_count" db:"row_count"`
	ColumnCount int       `json:"column_count" db:"column_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// UploadSummary is the read-only projection returned alongside a resolved
// invitation or link.
type UploadSummary struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"size_bytes"`
	RowCount    int       `json:"row_count"`
	ColumnCount int       `json:"column_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary projects an upload into its shareable shape.
func (u Upload) Summary() UploadSummary {
	return UploadSummary{
		ID:          u.ID,
		Filename:    u.Filename,
		SizeBytes:   u.SizeBytes,
		RowCount:    u.RowCount,
		ColumnCount: u.ColumnCount,
		CreatedAt:   u.CreatedAt,
	}
}
