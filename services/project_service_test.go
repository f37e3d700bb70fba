package services

import (
	"testing"

	"project-review-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateProject(t *testing.T) {
	db := openTestDB(t)
	svc := NewProjectService(db)
	owner := asUser("owner-1")

	t.Run("valid input persists work-in-progress project", func(t *testing.T) {
		in := validProject()
		in.Screenshots = []string{"https://cdn.example.com/shot1.png", "https://cdn.example.com/shot2.png"}

		project, err := svc.Create(owner, in)
		require.NoError(t, err)
		assert.NotEmpty(t, project.ID)
		assert.Equal(t, models.StatusWorkInProgress, project.Status)
		require.NotNil(t, project.UserID)
		assert.Equal(t, "owner-1", *project.UserID)
		require.Len(t, project.Screenshots, 2)
		assert.Equal(t, 0, project.Screenshots[0].Order)
		assert.Equal(t, 1, project.Screenshots[1].Order)
	})

	t.Run("missing code URL", func(t *testing.T) {
		in := validProject()
		in.CodeURL = "   "

		_, err := svc.Create(owner, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Code URL is required", ve.Message)
	})

	t.Run("non-http code URL", func(t *testing.T) {
		in := validProject()
		in.CodeURL = "ftp://x.com"

		_, err := svc.Create(owner, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Code URL must be http(s)", ve.Message)
	})

	t.Run("relative playable URL", func(t *testing.T) {
		in := validProject()
		in.PlayableURL = "/games/cave-crawler"

		_, err := svc.Create(owner, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Playable URL must be http(s)", ve.Message)
	})

	t.Run("unknown editor", func(t *testing.T) {
		in := validProject()
		in.Editor = "vim"

		_, err := svc.Create(owner, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Editor", ve.Field)
	})

	t.Run("editor other requires a name", func(t *testing.T) {
		in := validProject()
		in.Editor = "other"
		in.EditorOther = ""

		_, err := svc.Create(owner, in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
	})

	t.Run("editor other keeps the free-text name", func(t *testing.T) {
		in := validProject()
		in.Editor = "other"
		in.EditorOther = "pico-8"

		project, err := svc.Create(owner, in)
		require.NoError(t, err)
		assert.Equal(t, models.EditorOtherKey, project.Editor)
		assert.Equal(t, "pico-8", project.EditorOther)
	})

	t.Run("known editor clears a stray other-name", func(t *testing.T) {
		in := validProject()
		in.Editor = "unity"
		in.EditorOther = "should vanish"

		project, err := svc.Create(owner, in)
		require.NoError(t, err)
		assert.Empty(t, project.EditorOther)
	})

	t.Run("hackatime project defaults to the slugged name", func(t *testing.T) {
		in := validProject()
		in.Name = "My Great Game!"
		in.HackatimeProject = ""

		project, err := svc.Create(owner, in)
		require.NoError(t, err)
		assert.Equal(t, "my-great-game", project.HackatimeProject)
	})
}

func TestUpdateProject(t *testing.T) {
	db := openTestDB(t)
	svc := NewProjectService(db)
	owner := asUser("owner-1")
	stranger := asUser("owner-2")
	admin := asAdmin("admin-1")

	t.Run("empty update is rejected", func(t *testing.T) {
		project := mustCreateProject(t, svc, owner)
		_, err := svc.Update(owner, project.ID, ProjectUpdate{})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "nothing to update", ve.Message)
	})

	t.Run("only the owner may edit", func(t *testing.T) {
		project := mustCreateProject(t, svc, owner)
		_, err := svc.Update(stranger, project.ID, ProjectUpdate{Name: strPtr("Hijacked")})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing project", func(t *testing.T) {
		_, err := svc.Update(owner, "nope", ProjectUpdate{Name: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("partial edit leaves other fields alone", func(t *testing.T) {
		project := mustCreateProject(t, svc, owner)
		updated, err := svc.Update(owner, project.ID, ProjectUpdate{Description: strPtr("Now with lava levels")})
		require.NoError(t, err)
		assert.Equal(t, "Now with lava levels", updated.Description)
		assert.Equal(t, project.Name, updated.Name)
		assert.Equal(t, project.CodeURL, updated.CodeURL)
	})

	t.Run("present fields are validated like create", func(t *testing.T) {
		project := mustCreateProject(t, svc, owner)
		_, err := svc.Update(owner, project.ID, ProjectUpdate{CodeURL: strPtr("ftp://x.com")})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Code URL must be http(s)", ve.Message)
	})

	t.Run("owner submits for review", func(t *testing.T) {
		project := mustCreateProject(t, svc, owner)
		updated, err := svc.Update(owner, project.ID, ProjectUpdate{Status: strPtr(models.StatusInReview)})
		require.NoError(t, err)
		assert.Equal(t, models.StatusInReview, updated.Status)
	})

	t.Run("owner withdraws a submission", func(t *testing.T) {
		project := mustCreateProject(t, svc, owner)
		setStatus(t, db, project.ID, models.StatusInReview)

		updated, err := svc.Update(owner, project.ID, ProjectUpdate{Status: strPtr(models.StatusWorkInProgress)})
		require.NoError(t, err)
		assert.Equal(t, models.StatusWorkInProgress, updated.Status)
	})

	t.Run("owner cannot set shipped or granted", func(t *testing.T) {
		project := mustCreateProject(t, svc, owner)
		for _, status := range []string{models.StatusShipped, models.StatusGranted} {
			_, err := svc.Update(owner, project.ID, ProjectUpdate{Status: strPtr(status)})
			var ve *ValidationError
			require.ErrorAs(t, err, &ve, "status %s must not be owner-settable", status)
		}
	})

	t.Run("shipped project cannot be pulled back", func(t *testing.T) {
		project := mustCreateProject(t, svc, owner)
		setStatus(t, db, project.ID, models.StatusShipped)

		for _, requested := range []string{models.StatusWorkInProgress, models.StatusInReview} {
			_, err := svc.Update(owner, project.ID, ProjectUpdate{Status: strPtr(requested)})
			var ce *ConflictError
			require.ErrorAs(t, err, &ce, "requested %s", requested)
		}
		assert.Equal(t, models.StatusShipped, projectStatus(t, db, project.ID))
	})

	t.Run("granted project is locked for the owner", func(t *testing.T) {
		project := mustCreateProject(t, svc, owner)
		setStatus(t, db, project.ID, models.StatusGranted)

		_, err := svc.Update(owner, project.ID, ProjectUpdate{Name: strPtr("Sneaky rename")})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin may still edit a granted project", func(t *testing.T) {
		project := mustCreateProject(t, svc, owner)
		setStatus(t, db, project.ID, models.StatusGranted)

		updated, err := svc.Update(admin, project.ID, ProjectUpdate{Description: strPtr("fixed typo")})
		require.NoError(t, err)
		assert.Equal(t, "fixed typo", updated.Description)
	})

	t.Run("screenshot list is replaced in order", func(t *testing.T) {
		project := mustCreateProject(t, svc, owner)
		shots := []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"}
		updated, err := svc.Update(owner, project.ID, ProjectUpdate{Screenshots: &shots})
		require.NoError(t, err)
		require.Len(t, updated.Screenshots, 2)
		assert.Equal(t, "https://cdn.example.com/a.png", updated.Screenshots[0].URL)

		empty := []string{}
		updated, err = svc.Update(owner, project.ID, ProjectUpdate{Screenshots: &empty})
		require.NoError(t, err)
		assert.Empty(t, updated.Screenshots)
	})
}

func TestGetAndListProjects(t *testing.T) {
	db := openTestDB(t)
	svc := NewProjectService(db)
	owner := asUser("owner-1")
	stranger := asUser("owner-2")
	reviewer := asReviewer("rev-1")

	project := mustCreateProject(t, svc, owner)

	t.Run("owner reads own project", func(t *testing.T) {
		got, err := svc.Get(owner, project.ID)
		require.NoError(t, err)
		assert.Equal(t, project.ID, got.ID)
	})

	t.Run("stranger is refused", func(t *testing.T) {
		_, err := svc.Get(stranger, project.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("reviewer reads any project", func(t *testing.T) {
		_, err := svc.Get(reviewer, project.ID)
		require.NoError(t, err)
	})

	t.Run("review queue lists only in-review projects", func(t *testing.T) {
		queued := mustCreateProject(t, svc, owner)
		setStatus(t, db, queued.ID, models.StatusInReview)

		queue, err := svc.ListInReview(reviewer)
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.Equal(t, queued.ID, queue[0].ID)

		_, err = svc.ListInReview(owner)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("list own returns only the caller's projects", func(t *testing.T) {
		_, err := svc.Create(stranger, validProject())
		require.NoError(t, err)

		mine, err := svc.ListOwn(owner)
		require.NoError(t, err)
		for _, p := range mine {
			require.NotNil(t, p.UserID)
			assert.Equal(t, "owner-1", *p.UserID)
		}
	})
}

func TestEditorLabel(t *testing.T) {
	assert.Equal(t, "Godot", EditorLabel(&models.Project{Editor: models.EditorGodot}))
	assert.Equal(t, "Unreal Engine", EditorLabel(&models.Project{Editor: models.EditorUnreal}))
	assert.Equal(t, "Pico-8", EditorLabel(&models.Project{Editor: models.EditorOtherKey, EditorOther: "pico-8"}))
}
