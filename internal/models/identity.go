package models

import "time"

// Identity is a registered email. Its existence is a stored fact, independent of edges.
type Identity struct {
	Email     string `gorm:"primaryKey;size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
