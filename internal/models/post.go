package models

import "time"

// Post is the summary entity carrying denormalized interaction counters.
// The interaction ledger is the source of truth; Likes, Comments and Shares are
// cached aggregates maintained by the counter projector and repairable via recompute.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Content   string    `gorm:"type:text" json:"content"`
	Likes     int64     `gorm:"not null;default:0" json:"likes"`
	Comments  int64     `gorm:"not null;default:0" json:"comments"`
	Shares    int64     `gorm:"not null;default:0" json:"shares"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
