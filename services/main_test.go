package services

import (
	"fmt"
	"strings"
	"testing"

	"project-review-system/middleware"
	"project-review-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test its own in-memory database with the production
// schema. TranslateError is on, same as the real connection, so unique-index
// violations surface as gorm.ErrDuplicatedKey here too.
//
// SkipDefaultTransaction matters for the race-window tests: rival rows
// injected from create callbacks must stay committed when the statement under
// test fails, and a wrapping transaction would roll them back with it.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectScreenshot{},
		&models.PeerReview{},
		&models.BountyProject{},
		&models.BountyClaim{},
	))
	return db
}

func asUser(id string) middleware.Identity {
	return middleware.Identity{UserID: id, Role: models.RoleUser, Username: id, Email: id + "@example.com"}
}

func asReviewer(id string) middleware.Identity {
	return middleware.Identity{UserID: id, Role: models.RoleReviewer, Username: id, Email: id + "@example.com"}
}

func asAdmin(id string) middleware.Identity {
	return middleware.Identity{UserID: id, Role: models.RoleAdmin, Username: id, Email: id + "@example.com"}
}

// validProject is a complete, valid create payload.
func validProject() ProjectInput {
	return ProjectInput{
		Name:             "Cave Crawler",
		Description:      "A roguelike about spelunking",
		Editor:           "godot",
		HackatimeProject: "cave-crawler",
		PlayableURL:      "https://example.itch.io/cave-crawler",
		CodeURL:          "https://github.com/example/cave-crawler",
	}
}

// mustCreateProject registers a project owned by ident and returns it.
func mustCreateProject(t *testing.T, s *ProjectService, ident middleware.Identity) *models.Project {
	t.Helper()
	project, err := s.Create(ident, validProject())
	require.NoError(t, err)
	return project
}

// setStatus force-moves a project for test setup, bypassing the state machine.
func setStatus(t *testing.T, db *gorm.DB, projectID, status string) {
	t.Helper()
	require.NoError(t, db.Model(&models.Project{}).Where("id = ?", projectID).Update("status", status).Error)
}
