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

// claimSlots is the fixed set of claim positions per bounty.
var claimSlots = [2]int{1, 2}

type BountyService struct {
	DB *gorm.DB
}

func NewBountyService(db *gorm.DB) *BountyService {
	return &BountyService{DB: db}
}

// ClaimResult reports where a claim attempt landed. Always carries the
// recomputed distinct-claimant count so the caller can render current state
// whether the attempt created a row or not.
type ClaimResult struct {
	BountyProjectID string `json:"bounty_project_id"`
	ClaimedCount    int64  `json:"claimed_count"`
	CallerClaimed   bool   `json:"caller_claimed"`
	Slot            int    `json:"slot,omitempty"`
}

// Claim assigns the lowest free slot on a bounty to the caller.
//
// Safe under concurrent submission and safe to retry: the two unique indexes
// on bounty_claims decide every race. A duplicate-key failure means another
// writer (or a double-submit of the same user) got there first, so the
// attempt loops, re-reads the claim set and either takes the remaining slot
// or reports the conflict. No row is ever created past two distinct users.
func (s *BountyService) Claim(ident middleware.Identity, bountyID string) (*ClaimResult, error) {
	var bounty models.BountyProject
	if err := s.DB.First(&bounty, "id = ?", bountyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if bounty.Completed {
		return nil, conflictErr("bounty already completed")
	}

	// One retry per slot is enough: each loop either inserts, reports a
	// conflict, or observes the state that beat it and tries the next slot.
	for attempt := 0; attempt < len(claimSlots)+1; attempt++ {
		var claims []models.BountyClaim
		if err := s.DB.Where("bounty_project_id = ?", bountyID).Find(&claims).Error; err != nil {
			return nil, err
		}

		occupied := map[int]bool{}
		for _, claim := range claims {
			occupied[claim.Slot] = true
			if claim.UserID == ident.UserID {
				return s.conflictResult(bountyID, ident, "you already claimed this bounty")
			}
		}

		slot := 0
		for _, candidate := range claimSlots {
			if !occupied[candidate] {
				slot = candidate
				break
			}
		}
		if slot == 0 {
			return s.conflictResult(bountyID, ident, "bounty is fully claimed")
		}

		claim := models.BountyClaim{
			ID:              uuid.NewString(),
			BountyProjectID: bountyID,
			UserID:          ident.UserID,
			Slot:            slot,
		}
		err := s.DB.Create(&claim).Error
		if err == nil {
			count, _, countErr := s.claimState(bountyID, ident.UserID)
			if countErr != nil {
				return nil, countErr
			}
			log.Printf("✅ [BOUNTY] %s claimed slot %d on bounty %s", ident.UserID, slot, bountyID)
			return &ClaimResult{
				BountyProjectID: bountyID,
				ClaimedCount:    count,
				CallerClaimed:   true,
				Slot:            slot,
			}, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race on one of the unique indexes — swallow and re-read
			log.Printf("⚠️  [BOUNTY] Claim race on bounty %s slot %d, retrying", bountyID, slot)
			continue
		}
		return nil, err
	}

	// every slot filled while we were looping
	return s.conflictResult(bountyID, ident, "bounty is fully claimed")
}

// conflictResult builds the 409 payload: no row was created, but the caller
// still learns the current claim state and why the attempt did not land.
func (s *BountyService) conflictResult(bountyID string, ident middleware.Identity, reason string) (*ClaimResult, error) {
	count, callerClaimed, err := s.claimState(bountyID, ident.UserID)
	if err != nil {
		return nil, err
	}
	if callerClaimed {
		reason = "you already claimed this bounty"
	}
	return &ClaimResult{
		BountyProjectID: bountyID,
		ClaimedCount:    count,
		CallerClaimed:   callerClaimed,
	}, conflictErr(reason)
}

// claimState recomputes the distinct-claimant count and whether userID is
// among the claimants.
func (s *BountyService) claimState(bountyID, userID string) (int64, bool, error) {
	var count int64
	err := s.DB.Model(&models.BountyClaim{}).
		Where("bounty_project_id = ?", bountyID).
		Distinct("user_id").
		Count(&count).Error
	if err != nil {
		return 0, false, err
	}

	var mine int64
	err = s.DB.Model(&models.BountyClaim{}).
		Where("bounty_project_id = ? AND user_id = ?", bountyID, userID).
		Count(&mine).Error
	if err != nil {
		return 0, false, err
	}
	return count, mine > 0, nil
}

// BountySummary is a bounty with its claim state folded in for display.
type BountySummary struct {
	models.BountyProject
	ClaimedCount  int64 `json:"claimed_count"`
	CallerClaimed bool  `json:"caller_claimed"`
}

// List returns all bounties, newest first, with claim counts. callerID may
// be empty (public listing path).
func (s *BountyService) List(callerID string) ([]BountySummary, error) {
	var bounties []models.BountyProject
	if err := s.DB.Order("created_at DESC").Find(&bounties).Error; err != nil {
		return nil, err
	}

	summaries := make([]BountySummary, 0, len(bounties))
	for _, b := range bounties {
		count, callerClaimed, err := s.claimState(b.ID, callerID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, BountySummary{
			BountyProject: b,
			ClaimedCount:  count,
			CallerClaimed: callerID != "" && callerClaimed,
		})
	}
	return summaries, nil
}

// Get returns one bounty with claim state.
func (s *BountyService) Get(callerID, bountyID string) (*BountySummary, error) {
	var bounty models.BountyProject
	if err := s.DB.First(&bounty, "id = ?", bountyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	count, callerClaimed, err := s.claimState(bountyID, callerID)
	if err != nil {
		return nil, err
	}
	return &BountySummary{
		BountyProject: bounty,
		ClaimedCount:  count,
		CallerClaimed: callerID != "" && callerClaimed,
	}, nil
}

// BountyInput carries admin-supplied bounty fields.
type BountyInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PrizeUSD    int    `json:"prize_usd"`
}

// CreateBounty registers a new bounty task. Admin only.
func (s *BountyService) CreateBounty(ident middleware.Identity, in BountyInput) (*models.BountyProject, error) {
	if !ident.IsAdmin() {
		return nil, ErrForbidden
	}

	title, err := requireField(in.Title, "Title")
	if err != nil {
		return nil, err
	}
	if in.PrizeUSD <= 0 {
		return nil, validationErr("Prize", "Prize must be a positive USD amount")
	}

	bounty := &models.BountyProject{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		PrizeUSD:    in.PrizeUSD,
	}
	if err := s.DB.Create(bounty).Error; err != nil {
		return nil, err
	}
	return bounty, nil
}

// BountyUpdate is a partial admin edit.
type BountyUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PrizeUSD    *int    `json:"prize_usd"`
}

// UpdateBounty edits bounty fields. Admin only.
func (s *BountyService) UpdateBounty(ident middleware.Identity, bountyID string, upd BountyUpdate) (*models.BountyProject, error) {
	if !ident.IsAdmin() {
		return nil, ErrForbidden
	}

	var bounty models.BountyProject
	if err := s.DB.First(&bounty, "id = ?", bountyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if upd.Title != nil {
		title, err := requireField(*upd.Title, "Title")
		if err != nil {
			return nil, err
		}
		bounty.Title = title
	}
	if upd.Description != nil {
		bounty.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.PrizeUSD != nil {
		if *upd.PrizeUSD <= 0 {
			return nil, validationErr("Prize", "Prize must be a positive USD amount")
		}
		bounty.PrizeUSD = *upd.PrizeUSD
	}

	if err := s.DB.Save(&bounty).Error; err != nil {
		return nil, err
	}
	return &bounty, nil
}

// MarkCompleted flags a bounty as done; completed bounties accept no further
// claims. Admin only.
func (s *BountyService) MarkCompleted(ident middleware.Identity, bountyID string) (*models.BountyProject, error) {
	if !ident.IsAdmin() {
		return nil, ErrForbidden
	}

	var bounty models.BountyProject
	if err := s.DB.First(&bounty, "id = ?", bountyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if bounty.Completed {
		return nil, conflictErr("bounty already completed")
	}

	bounty.Completed = true
	if err := s.DB.Save(&bounty).Error; err != nil {
		return nil, err
	}
	return &bounty, nil
}
