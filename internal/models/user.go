package models

import "time"

// User is the summary entity for an account. Followers and Following are cached
// aggregates derived from active follow rows in the interaction ledger.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Nickname  string    `gorm:"size:64;not null" json:"nickname"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	Followers int64     `gorm:"not null;default:0" json:"followers"`
	Following int64     `gorm:"not null;default:0" json:"following"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
