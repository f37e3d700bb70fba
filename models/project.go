// models/project.go
package models

import (
	"time"
)

// Project lifecycle states. Transitions:
//
//	work-in-progress → in-review   (owner submits)
//	in-review        → shipped     (reviewer approves)
//	in-review        → work-in-progress (reviewer rejects)
//	shipped          → granted     (admin grant)
//	granted          → shipped     (admin ungrant)
const (
	StatusWorkInProgress = "work-in-progress"
	StatusInReview       = "in-review"
	StatusShipped        = "shipped"
	StatusGranted        = "granted"
)

// Editors a project can target. EditorOther carries the free-text name
// and is set if and only if Editor == EditorOtherKey.
const (
	EditorGodot     = "godot"
	EditorUnity     = "unity"
	EditorUnreal    = "unreal"
	EditorGameMaker = "gamemaker"
	EditorConstruct = "construct"
	EditorOtherKey  = "other"
)

var KnownEditors = []string{
	EditorGodot,
	EditorUnity,
	EditorUnreal,
	EditorGameMaker,
	EditorConstruct,
	EditorOtherKey,
}

type Project struct {
	ID          string  `json:"id" gorm:"primaryKey"`
	UserID      *string `json:"user_id" gorm:"index"` // creator; null if the account was removed
	Name        string  `json:"name" gorm:"not null"`
	Description string  `json:"description"`

	Editor      string `json:"editor"`
	EditorOther string `json:"editor_other,omitempty"`

	// Name of the project inside the external time-tracking service.
	HackatimeProject string `json:"hackatime_project"`

	PlayableURL string `json:"playable_url"`
	CodeURL     string `json:"code_url"`

	Screenshots []ProjectScreenshot `json:"screenshots" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`

	Status string `json:"status" gorm:"default:'work-in-progress'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Reviews []PeerReview `json:"reviews,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

type ProjectScreenshot struct {
	ID        string `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"project_id" gorm:"index;not null"`
	URL       string `json:"url"`
	Order     int    `json:"order"`
}

// Review decisions
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
	DecisionComment  = "comment"
)

// PeerReview is append-only history. Owner-authored rows are always
// decision=comment; owners cannot approve or reject their own project.
type PeerReview struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	ProjectID  string    `json:"project_id" gorm:"index;not null"`
	ReviewerID string    `json:"reviewer_id" gorm:"index;not null"`
	Decision   string    `json:"decision" gorm:"not null"` // approved | rejected | comment
	Comment    string    `json:"comment" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
