package models

import (
	"time"

	"gorm.io/datatypes"
)

// Target kinds an interaction may point at.
const (
	TargetPost    = "post"
	TargetUser    = "user"
	TargetComment = "comment"
)

// Action kinds recorded in the ledger.
const (
	ActionLike    = "like"
	ActionComment = "comment"
	ActionFollow  = "follow"
	ActionShare   = "share"
	ActionReport  = "report"
)

// Interaction is one ledger row: a single user's action against a single target.
// Toggleable kinds (like, follow) keep at most one row per
// (actor, target_type, target_id, action_type) tuple and flip Active instead of
// inserting duplicates; a partial unique index backs that invariant even when
// two nodes race the same tuple. Comment, share and report rows are append-only.
type Interaction struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"index:idx_interactions_actor;index:idx_interactions_tuple,priority:1;uniqueIndex:uniq_interactions_toggle,priority:1,where:action_type = 'like' OR action_type = 'follow'" json:"actor_id"`
	TargetType string            `gorm:"size:16;not null;index:idx_interactions_tuple,priority:2;index:idx_interactions_target,priority:1;uniqueIndex:uniq_interactions_toggle,priority:2" json:"target_type"`
	TargetID   uint              `gorm:"not null;index:idx_interactions_tuple,priority:3;index:idx_interactions_target,priority:2;uniqueIndex:uniq_interactions_toggle,priority:3" json:"target_id"`
	ActionType string            `gorm:"size:16;not null;index:idx_interactions_tuple,priority:4;index:idx_interactions_target,priority:3;uniqueIndex:uniq_interactions_toggle,priority:4" json:"action_type"`
	Content    string            `gorm:"type:text" json:"content"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	Active     bool              `gorm:"not null;default:true;index" json:"active"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Toggleable reports whether the action kind flips between active and inactive
// rather than accumulating rows.
func Toggleable(actionType string) bool {
	return actionType == ActionLike || actionType == ActionFollow
}
