package models

import "time"

// BountyProject is an admin-created task with a cash prize. Independent of
// the Project entity — bounties are standalone work items.
type BountyProject struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	PrizeUSD    int       `gorm:"not null" json:"prize_usd"`
	Completed   bool      `gorm:"default:false" json:"completed"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BountyClaim assigns one of two slots on a bounty to a user.
// The two composite unique indexes are the whole concurrency story:
//   - (bounty_project_id, slot) caps claimants at 2
//   - (bounty_project_id, user_id) stops one user holding both slots
//
// A losing race on insert hits one of these and is swallowed upstream.
type BountyClaim struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	BountyProjectID string    `gorm:"not null;uniqueIndex:idx_bounty_claims_slot,priority:1;uniqueIndex:idx_bounty_claims_user,priority:1" json:"bounty_project_id"`
	UserID          string    `gorm:"not null;uniqueIndex:idx_bounty_claims_user,priority:2" json:"user_id"`
	Slot            int       `gorm:"not null;uniqueIndex:idx_bounty_claims_slot,priority:2" json:"slot"` // 1 or 2
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}
