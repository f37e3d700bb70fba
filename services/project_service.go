package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"project-review-system/middleware"
	"project-review-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type ProjectService struct {
	DB *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{DB: db}
}

// ProjectInput carries the fields an owner supplies on create.
type ProjectInput struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Editor           string   `json:"editor"`
	EditorOther      string   `json:"editor_other"`
	HackatimeProject string   `json:"hackatime_project"`
	PlayableURL      string   `json:"playable_url"`
	CodeURL          string   `json:"code_url"`
	Screenshots      []string `json:"screenshots"`
}

// ProjectUpdate is a partial update; nil fields are left unchanged.
type ProjectUpdate struct {
	Name             *string   `json:"name"`
	Description      *string   `json:"description"`
	Editor           *string   `json:"editor"`
	EditorOther      *string   `json:"editor_other"`
	HackatimeProject *string   `json:"hackatime_project"`
	PlayableURL      *string   `json:"playable_url"`
	CodeURL          *string   `json:"code_url"`
	Screenshots      *[]string `json:"screenshots"`
	Status           *string   `json:"status"`
}

var editorTitle = cases.Title(language.English)

// canonical display names for the editor enum; free-text "other" names are
// title-cased for display
var editorLabels = map[string]string{
	models.EditorGodot:     "Godot",
	models.EditorUnity:     "Unity",
	models.EditorUnreal:    "Unreal Engine",
	models.EditorGameMaker: "GameMaker",
	models.EditorConstruct: "Construct",
}

// EditorLabel returns the human-readable editor name for a project.
func EditorLabel(p *models.Project) string {
	if p.Editor == models.EditorOtherKey {
		return editorTitle.String(p.EditorOther)
	}
	if label, ok := editorLabels[p.Editor]; ok {
		return label
	}
	return p.Editor
}

// ---- field validation ----

func requireField(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", validationErr(field, fmt.Sprintf("%s is required", field))
	}
	return trimmed, nil
}

// checkURL accepts only absolute http(s) URLs.
func checkURL(raw, field string) (string, error) {
	trimmed, err := requireField(raw, field)
	if err != nil {
		return "", err
	}
	u, parseErr := url.Parse(trimmed)
	if parseErr != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", validationErr(field, fmt.Sprintf("%s must be http(s)", field))
	}
	return trimmed, nil
}

func checkEditor(editor, editorOther string) (string, string, error) {
	editor = strings.TrimSpace(strings.ToLower(editor))
	editorOther = strings.TrimSpace(editorOther)

	known := false
	for _, e := range models.KnownEditors {
		if editor == e {
			known = true
			break
		}
	}
	if !known {
		return "", "", validationErr("Editor", "Editor must be one of: "+strings.Join(models.KnownEditors, ", "))
	}

	// editor_other is set if and only if editor == "other"
	if editor == models.EditorOtherKey {
		if editorOther == "" {
			return "", "", validationErr("Editor name", "Editor name is required when editor is \"other\"")
		}
	} else {
		editorOther = ""
	}
	return editor, editorOther, nil
}

// validateInput normalizes and validates a full field set (create, and the
// submission gate when a project moves to in-review).
func validateInput(in ProjectInput) (ProjectInput, error) {
	var err error
	if in.Name, err = requireField(in.Name, "Name"); err != nil {
		return in, err
	}
	if in.Description, err = requireField(in.Description, "Description"); err != nil {
		return in, err
	}
	if in.Editor, in.EditorOther, err = checkEditor(in.Editor, in.EditorOther); err != nil {
		return in, err
	}
	if in.PlayableURL, err = checkURL(in.PlayableURL, "Playable URL"); err != nil {
		return in, err
	}
	if in.CodeURL, err = checkURL(in.CodeURL, "Code URL"); err != nil {
		return in, err
	}

	// Default the time-tracking project name from the title so hour totals
	// resolve even when the owner skips the field.
	in.HackatimeProject = strings.TrimSpace(in.HackatimeProject)
	if in.HackatimeProject == "" {
		in.HackatimeProject = slug.Make(in.Name)
	}
	return in, nil
}

// Create registers a new project for the caller. Status always starts at
// work-in-progress regardless of input.
func (s *ProjectService) Create(ident middleware.Identity, in ProjectInput) (*models.Project, error) {
	in, err := validateInput(in)
	if err != nil {
		return nil, err
	}

	ownerID := ident.UserID
	project := &models.Project{
		ID:               uuid.NewString(),
		UserID:           &ownerID,
		Name:             in.Name,
		Description:      in.Description,
		Editor:           in.Editor,
		EditorOther:      in.EditorOther,
		HackatimeProject: in.HackatimeProject,
		PlayableURL:      in.PlayableURL,
		CodeURL:          in.CodeURL,
		Status:           models.StatusWorkInProgress,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		shots := screenshotRows(project.ID, in.Screenshots)
		if len(shots) > 0 {
			if err := tx.Create(&shots).Error; err != nil {
				return err
			}
			project.Screenshots = shots
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func screenshotRows(projectID string, urls []string) []models.ProjectScreenshot {
	var shots []models.ProjectScreenshot
	for i, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		shots = append(shots, models.ProjectScreenshot{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			URL:       u,
			Order:     i,
		})
	}
	return shots
}

// Update applies a partial edit. Only the creator may update their project;
// a granted project is locked against everyone but admins. Owners can set
// status only between work-in-progress and in-review — shipped and granted
// belong to the review and grant flows.
func (s *ProjectService) Update(ident middleware.Identity, projectID string, upd ProjectUpdate) (*models.Project, error) {
	if upd.Name == nil && upd.Description == nil && upd.Editor == nil && upd.EditorOther == nil &&
		upd.HackatimeProject == nil && upd.PlayableURL == nil && upd.CodeURL == nil &&
		upd.Screenshots == nil && upd.Status == nil {
		return nil, validationErr("", "nothing to update")
	}

	var project models.Project
	if err := s.DB.Preload("Screenshots").First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if project.UserID == nil || *project.UserID != ident.UserID {
		if !ident.IsAdmin() {
			return nil, ErrForbidden
		}
	}
	if project.Status == models.StatusGranted && !ident.IsAdmin() {
		return nil, ErrForbidden
	}

	// merge into a full field set, then validate whatever the request touched
	merged := ProjectInput{
		Name:             project.Name,
		Description:      project.Description,
		Editor:           project.Editor,
		EditorOther:      project.EditorOther,
		HackatimeProject: project.HackatimeProject,
		PlayableURL:      project.PlayableURL,
		CodeURL:          project.CodeURL,
	}

	var err error
	if upd.Name != nil {
		if merged.Name, err = requireField(*upd.Name, "Name"); err != nil {
			return nil, err
		}
	}
	if upd.Description != nil {
		if merged.Description, err = requireField(*upd.Description, "Description"); err != nil {
			return nil, err
		}
	}
	if upd.Editor != nil || upd.EditorOther != nil {
		editor := merged.Editor
		other := merged.EditorOther
		if upd.Editor != nil {
			editor = *upd.Editor
		}
		if upd.EditorOther != nil {
			other = *upd.EditorOther
		}
		if merged.Editor, merged.EditorOther, err = checkEditor(editor, other); err != nil {
			return nil, err
		}
	}
	if upd.HackatimeProject != nil {
		if merged.HackatimeProject, err = requireField(*upd.HackatimeProject, "Hackatime project"); err != nil {
			return nil, err
		}
	}
	if upd.PlayableURL != nil {
		if merged.PlayableURL, err = checkURL(*upd.PlayableURL, "Playable URL"); err != nil {
			return nil, err
		}
	}
	if upd.CodeURL != nil {
		if merged.CodeURL, err = checkURL(*upd.CodeURL, "Code URL"); err != nil {
			return nil, err
		}
	}

	newStatus := project.Status
	if upd.Status != nil {
		requested := strings.TrimSpace(*upd.Status)
		switch requested {
		case models.StatusWorkInProgress, models.StatusInReview:
			// owner-settable
		default:
			return nil, validationErr("Status", "Status can only be set to work-in-progress or in-review")
		}
		if requested != project.Status {
			// shipped and granted projects only move through the review and
			// grant flows; there is no owner edge out of them
			switch project.Status {
			case models.StatusWorkInProgress, models.StatusInReview:
			default:
				return nil, conflictErr("project is " + project.Status + " and cannot be moved back")
			}
			if requested == models.StatusInReview {
				// submission gate: the whole field set must hold up
				merged.Screenshots = nil
				if merged, err = validateInput(merged); err != nil {
					return nil, err
				}
			}
		}
		newStatus = requested
	}

	project.Name = merged.Name
	project.Description = merged.Description
	project.Editor = merged.Editor
	project.EditorOther = merged.EditorOther
	project.HackatimeProject = merged.HackatimeProject
	project.PlayableURL = merged.PlayableURL
	project.CodeURL = merged.CodeURL
	project.Status = newStatus

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if upd.Screenshots != nil {
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectScreenshot{}).Error; err != nil {
				return err
			}
			shots := screenshotRows(project.ID, *upd.Screenshots)
			if len(shots) > 0 {
				if err := tx.Create(&shots).Error; err != nil {
					return err
				}
			}
			project.Screenshots = shots
		}
		return tx.Save(&project).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Get fetches a project. Owners see their own; reviewers and admins may
// fetch any project for review and grant purposes.
func (s *ProjectService) Get(ident middleware.Identity, projectID string) (*models.Project, error) {
	var project models.Project
	if err := s.DB.Preload("Screenshots").First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	isOwner := project.UserID != nil && *project.UserID == ident.UserID
	if !isOwner && !ident.IsReviewer() {
		return nil, ErrForbidden
	}
	return &project, nil
}

// ListOwn returns the caller's projects, newest first.
func (s *ProjectService) ListOwn(ident middleware.Identity) ([]models.Project, error) {
	var projects []models.Project
	err := s.DB.Preload("Screenshots").
		Where("user_id = ?", ident.UserID).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// ListInReview is the reviewer queue: every project currently awaiting a
// decision, oldest submission first.
func (s *ProjectService) ListInReview(ident middleware.Identity) ([]models.Project, error) {
	if !ident.IsReviewer() {
		return nil, ErrForbidden
	}
	var projects []models.Project
	err := s.DB.Preload("Screenshots").
		Where("status = ?", models.StatusInReview).
		Order("updated_at ASC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}
