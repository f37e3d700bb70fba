package services

import (
	"testing"

	"project-review-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func mustCreateBounty(t *testing.T, s *BountyService) *models.BountyProject {
	t.Helper()
	bounty, err := s.CreateBounty(asAdmin("admin-1"), BountyInput{
		Title:       "Port the tutorial to mobile",
		Description: "Touch controls + responsive layout",
		PrizeUSD:    150,
	})
	require.NoError(t, err)
	return bounty
}

func claimRows(t *testing.T, db *gorm.DB, bountyID string) []models.BountyClaim {
	t.Helper()
	var claims []models.BountyClaim
	require.NoError(t, db.Where("bounty_project_id = ?", bountyID).Order("slot ASC").Find(&claims).Error)
	return claims
}

func TestClaimBounty(t *testing.T) {
	db := openTestDB(t)
	svc := NewBountyService(db)

	t.Run("missing bounty", func(t *testing.T) {
		_, err := svc.Claim(asUser("u1"), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("slots fill lowest-first and cap at two users", func(t *testing.T) {
		bounty := mustCreateBounty(t, svc)

		first, err := svc.Claim(asUser("u1"), bounty.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Slot)
		assert.Equal(t, int64(1), first.ClaimedCount)
		assert.True(t, first.CallerClaimed)

		second, err := svc.Claim(asUser("u2"), bounty.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, second.Slot)
		assert.Equal(t, int64(2), second.ClaimedCount)

		third, err := svc.Claim(asUser("u3"), bounty.ID)
		var ce *ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "bounty is fully claimed", ce.Reason)
		require.NotNil(t, third)
		assert.Equal(t, int64(2), third.ClaimedCount)
		assert.False(t, third.CallerClaimed)

		assert.Len(t, claimRows(t, db, bounty.ID), 2)
	})

	t.Run("double claim is idempotent and creates no second row", func(t *testing.T) {
		bounty := mustCreateBounty(t, svc)

		_, err := svc.Claim(asUser("u1"), bounty.ID)
		require.NoError(t, err)

		again, err := svc.Claim(asUser("u1"), bounty.ID)
		var ce *ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "you already claimed this bounty", ce.Reason)
		require.NotNil(t, again)
		assert.True(t, again.CallerClaimed)
		assert.Equal(t, int64(1), again.ClaimedCount)

		assert.Len(t, claimRows(t, db, bounty.ID), 1)
	})

	t.Run("completed bounty rejects claims", func(t *testing.T) {
		bounty := mustCreateBounty(t, svc)
		_, err := svc.MarkCompleted(asAdmin("admin-1"), bounty.ID)
		require.NoError(t, err)

		_, err = svc.Claim(asUser("u1"), bounty.ID)
		var ce *ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "bounty already completed", ce.Reason)
		assert.Empty(t, claimRows(t, db, bounty.ID))
	})
}

// A rival claim can land between reading the occupied slots and inserting
// ours. The unique index rejects the stale insert and the allocator must
// fall through to the next free slot instead of erroring out. The window is
// reproduced with a one-shot callback that slips a competing row in just
// before our insert.
func TestClaimBountyLostSlotRace(t *testing.T) {
	db := openTestDB(t)
	svc := NewBountyService(db)
	bounty := mustCreateBounty(t, svc)

	fired := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test_rival_claim", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "bounty_claims" {
			return
		}
		fired = true
		tx.Session(&gorm.Session{NewDB: true}).Create(&models.BountyClaim{
			ID:              uuid.NewString(),
			BountyProjectID: bounty.ID,
			UserID:          "rival",
			Slot:            1,
		})
	}))
	defer db.Callback().Create().Remove("test_rival_claim")

	result, err := svc.Claim(asUser("u1"), bounty.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Slot)
	assert.Equal(t, int64(2), result.ClaimedCount)
	assert.True(t, result.CallerClaimed)

	claims := claimRows(t, db, bounty.ID)
	require.Len(t, claims, 2)
	assert.Equal(t, "rival", claims[0].UserID)
	assert.Equal(t, "u1", claims[1].UserID)
}

// Same race, but the rival fills the last slot: the allocator must end with
// a clean "fully claimed" conflict and no row of ours.
func TestClaimBountyLostFinalSlotRace(t *testing.T) {
	db := openTestDB(t)
	svc := NewBountyService(db)
	bounty := mustCreateBounty(t, svc)

	_, err := svc.Claim(asUser("u1"), bounty.ID)
	require.NoError(t, err)

	fired := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test_rival_final_claim", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "bounty_claims" {
			return
		}
		fired = true
		tx.Session(&gorm.Session{NewDB: true}).Create(&models.BountyClaim{
			ID:              uuid.NewString(),
			BountyProjectID: bounty.ID,
			UserID:          "rival",
			Slot:            2,
		})
	}))
	defer db.Callback().Create().Remove("test_rival_final_claim")

	result, err := svc.Claim(asUser("u2"), bounty.ID)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "bounty is fully claimed", ce.Reason)
	require.NotNil(t, result)
	assert.Equal(t, int64(2), result.ClaimedCount)
	assert.False(t, result.CallerClaimed)
	assert.Len(t, claimRows(t, db, bounty.ID), 2)
}

func TestBountyAdmin(t *testing.T) {
	db := openTestDB(t)
	svc := NewBountyService(db)
	admin := asAdmin("admin-1")
	user := asUser("u1")

	t.Run("only admins manage bounties", func(t *testing.T) {
		_, err := svc.CreateBounty(user, BountyInput{Title: "x", PrizeUSD: 10})
		assert.ErrorIs(t, err, ErrForbidden)

		bounty := mustCreateBounty(t, svc)
		_, err = svc.MarkCompleted(user, bounty.ID)
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = svc.UpdateBounty(user, bounty.ID, BountyUpdate{})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("create validates title and prize", func(t *testing.T) {
		_, err := svc.CreateBounty(admin, BountyInput{Title: "  ", PrizeUSD: 10})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)

		_, err = svc.CreateBounty(admin, BountyInput{Title: "ok", PrizeUSD: 0})
		require.ErrorAs(t, err, &ve)
	})

	t.Run("update edits fields", func(t *testing.T) {
		bounty := mustCreateBounty(t, svc)
		prize := 300
		updated, err := svc.UpdateBounty(admin, bounty.ID, BountyUpdate{PrizeUSD: &prize})
		require.NoError(t, err)
		assert.Equal(t, 300, updated.PrizeUSD)
	})

	t.Run("completing twice is a conflict", func(t *testing.T) {
		bounty := mustCreateBounty(t, svc)
		_, err := svc.MarkCompleted(admin, bounty.ID)
		require.NoError(t, err)
		_, err = svc.MarkCompleted(admin, bounty.ID)
		var ce *ConflictError
		require.ErrorAs(t, err, &ce)
	})

	t.Run("listing folds in claim state", func(t *testing.T) {
		db := openTestDB(t)
		svc := NewBountyService(db)
		bounty := mustCreateBounty(t, svc)
		_, err := svc.Claim(user, bounty.ID)
		require.NoError(t, err)

		summaries, err := svc.List(user.UserID)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, int64(1), summaries[0].ClaimedCount)
		assert.True(t, summaries[0].CallerClaimed)

		anon, err := svc.List("")
		require.NoError(t, err)
		assert.False(t, anon[0].CallerClaimed)
	})
}
