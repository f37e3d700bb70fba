package services

import (
	"errors"
	"log"
	"strings"

	"project-review-system/middleware"
	"project-review-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewService struct {
	DB *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{DB: db}
}

// ReviewRecord is a PeerReview row with the author resolved for display.
type ReviewRecord struct {
	models.PeerReview
	ReviewerName  string `json:"reviewer_name"`
	ReviewerEmail string `json:"reviewer_email"`
}

// ReviewResult is what a submit operation hands back: the appended row and
// the project status after the (possibly no-op) transition.
type ReviewResult struct {
	Review ReviewRecord `json:"review"`
	Status string       `json:"status"`
}

// SubmitReview appends a reviewer decision and drives the project status.
// Callable by reviewers and admins only.
//
// The status change is a conditional write: "set shipped where status is
// still in-review". When two reviewers race, the second conditional update
// matches zero rows and the status stays where the first writer put it —
// the review row is appended either way.
func (s *ReviewService) SubmitReview(ident middleware.Identity, projectID, decision, comment string) (*ReviewResult, error) {
	if !ident.IsReviewer() {
		return nil, ErrForbidden
	}

	switch decision {
	case models.DecisionApproved, models.DecisionRejected, models.DecisionComment:
	default:
		return nil, validationErr("Decision", "Decision must be approved, rejected or comment")
	}

	return s.appendReview(ident, projectID, decision, comment)
}

// SubmitOwnerComment is the owner feedback channel: same append, but the
// decision is forced to comment. Owners cannot approve or reject their own
// project.
func (s *ReviewService) SubmitOwnerComment(ident middleware.Identity, projectID, comment string) (*ReviewResult, error) {
	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if project.UserID == nil || *project.UserID != ident.UserID {
		return nil, ErrForbidden
	}

	return s.appendReview(ident, projectID, models.DecisionComment, comment)
}

func (s *ReviewService) appendReview(ident middleware.Identity, projectID, decision, comment string) (*ReviewResult, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, validationErr("Comment", "Comment is required")
	}

	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if project.Status != models.StatusInReview {
		return nil, conflictErr("project is not in review")
	}

	review := &models.PeerReview{
		ID:         uuid.NewString(),
		ProjectID:  project.ID,
		ReviewerID: ident.UserID,
		Decision:   decision,
		Comment:    comment,
	}
	if err := s.DB.Create(review).Error; err != nil {
		return nil, err
	}

	status := models.StatusInReview
	var target string
	switch decision {
	case models.DecisionApproved:
		target = models.StatusShipped
	case models.DecisionRejected:
		target = models.StatusWorkInProgress
	}

	if target != "" {
		// conditional write — the race guard; never read-then-write here
		res := s.DB.Model(&models.Project{}).
			Where("id = ? AND status = ?", project.ID, models.StatusInReview).
			Update("status", target)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			// a concurrent reviewer already moved the project; the review
			// row above is preserved, the status flip becomes a no-op
			log.Printf("⚠️  [REVIEW] Lost status race on project %s (decision=%s)", project.ID, decision)
			var current models.Project
			if err := s.DB.Select("status").First(&current, "id = ?", project.ID).Error; err == nil {
				status = current.Status
			}
		} else {
			status = target
		}
	}

	record := ReviewRecord{PeerReview: *review}
	record.ReviewerName, record.ReviewerEmail = s.resolveReviewer(ident)

	return &ReviewResult{Review: record, Status: status}, nil
}

// resolveReviewer prefers the synced user row; the session claims are the
// fallback when the sync worker has not caught up yet.
func (s *ReviewService) resolveReviewer(ident middleware.Identity) (name, email string) {
	var user models.User
	if err := s.DB.First(&user, "external_user_id = ?", ident.UserID).Error; err == nil {
		return user.Username, user.Email
	}
	return ident.Username, ident.Email
}

// ListForProject returns a project's review history, newest first, with
// author identities joined in. Owners see their own history; reviewers and
// admins see any.
func (s *ReviewService) ListForProject(ident middleware.Identity, projectID string) ([]ReviewRecord, error) {
	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	isOwner := project.UserID != nil && *project.UserID == ident.UserID
	if !isOwner && !ident.IsReviewer() {
		return nil, ErrForbidden
	}

	var records []ReviewRecord
	err := s.DB.Model(&models.PeerReview{}).
		Select("peer_reviews.*, users.username AS reviewer_name, users.email AS reviewer_email").
		Joins("LEFT JOIN users ON users.external_user_id = peer_reviews.reviewer_id").
		Where("peer_reviews.project_id = ?", projectID).
		Order("peer_reviews.created_at DESC").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteReview removes a single review row. Admin only — review history is
// append-only for everyone else.
func (s *ReviewService) DeleteReview(ident middleware.Identity, reviewID string) error {
	if !ident.IsAdmin() {
		return ErrForbidden
	}

	res := s.DB.Delete(&models.PeerReview{}, "id = ?", reviewID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
