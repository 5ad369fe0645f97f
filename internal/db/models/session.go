package models

import "time"

// Session is a login session kept in the database when no dedicated session storage is configured.
type Session struct {
	// ID is the opaque session identifier stored in the cookie.
	ID string `gorm:"primaryKey;size:64"`
	// Data is the encoded session payload.
	Data []byte `gorm:"not null"`
	// ExpiresAt is when the session stops being valid. Zero never expires.
	ExpiresAt time.Time `gorm:"index"`
}

// TableName specifies the database table name for the Session model.
func (Session) TableName() string {
	return "sessions"
}
