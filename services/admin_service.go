package services

import (
	"errors"
	"log"

	"project-review-system/middleware"
	"project-review-system/models"

	"gorm.io/gorm"
)

// AdminService holds the grant flow: the terminal state flip between shipped
// and granted, and hard project deletion. Pure authorization-gated state
// changes — no field validation lives here.
type AdminService struct {
	DB *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

// GrantProject moves a shipped project to granted, locking it against
// further owner edits. Admin only.
func (s *AdminService) GrantProject(ident middleware.Identity, projectID string) (*models.Project, error) {
	return s.flipStatus(ident, projectID, models.StatusShipped, models.StatusGranted)
}

// UngrantProject reverses a grant (granted → shipped). Admin only.
func (s *AdminService) UngrantProject(ident middleware.Identity, projectID string) (*models.Project, error) {
	return s.flipStatus(ident, projectID, models.StatusGranted, models.StatusShipped)
}

// flipStatus is a conditional write: the update only lands while the project
// is still in the expected source state, so concurrent admins cannot
// double-grant.
func (s *AdminService) flipStatus(ident middleware.Identity, projectID, from, to string) (*models.Project, error) {
	if !ident.IsAdmin() {
		return nil, ErrForbidden
	}

	res := s.DB.Model(&models.Project{}).
		Where("id = ? AND status = ?", projectID, from).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}

	var project models.Project
	if err := s.DB.Preload("Screenshots").First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if res.RowsAffected == 0 {
		return nil, conflictErr("project is not " + from)
	}

	log.Printf("✅ [GRANT] Project %s: %s → %s (by %s)", projectID, from, to, ident.UserID)
	return &project, nil
}

// DeleteProject hard-deletes a project and, via FK cascade, its reviews and
// screenshots. Destructive and non-recoverable — confirmation is the UI's
// job, not re-checked here. Admin only.
func (s *AdminService) DeleteProject(ident middleware.Identity, projectID string) error {
	if !ident.IsAdmin() {
		return ErrForbidden
	}

	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// dependent rows first — not every deployment has FK enforcement on
		if err := tx.Where("project_id = ?", projectID).Delete(&models.PeerReview{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectScreenshot{}).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
	if err != nil {
		return err
	}

	log.Printf("🗑️  [GRANT] Project %s hard-deleted by %s", projectID, ident.UserID)
	return nil
}
