package models

import "time"

// ShareLink is a durable, multi-use, role-scoped access token for an
// upload. Unlike an invitation token it survives resolution; the owner
// can switch it off independently of any expiry.
type ShareLink struct {
	ID           string     `json:"id" db:"id"`
	UploadID     string     `json:"upload_id" db:"upload_id"`
	Role         Role       `json:"role" db:"role"`
	Token        string     `json:"token" db:"token"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	AccessCount  int64      `json:"access_count" db:"access_count"`
	CreatedBy    string     `json:"created_by" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastAccessed *time.Time `json:"last_accessed,omitempty" db:"last_accessed"`
}

// IsExpired reports whether an expiry is set and has passed. Links with
// no expiry never expire.
func (l ShareLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
