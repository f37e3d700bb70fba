// services/hackatime_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"project-review-system/cache"
	"project-review-system/utils"

	"gorm.io/gorm"
)

// HackatimeService reads coding-hour totals from the external time-tracking
// API. Display data only — no invariant in this service depends on it.
type HackatimeService struct {
	DB         *gorm.DB
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

const hoursCacheTTL = 5 * time.Minute

func NewHackatimeService(db *gorm.DB, baseURL, token string) *HackatimeService {
	return &HackatimeService{
		DB:         db,
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: utils.HTTPClient,
	}
}

// ProjectHours is one named project's hour total as reported upstream.
type ProjectHours struct {
	Name         string  `json:"name"`
	TotalSeconds int64   `json:"total_seconds"`
	Hours        float64 `json:"hours"`
}

type hackatimeStatsResponse struct {
	Data struct {
		Projects []struct {
			Name         string `json:"name"`
			TotalSeconds int64  `json:"total_seconds"`
		} `json:"projects"`
	} `json:"data"`
}

// HoursForUser returns per-project hour totals for a tracked user, served
// through a short-TTL cache so repeated dashboard loads do not hammer the
// upstream API.
func (s *HackatimeService) HoursForUser(ctx context.Context, hackatimeID string) ([]ProjectHours, error) {
	if hackatimeID == "" {
		return nil, validationErr("Hackatime ID", "No time-tracking account is linked to this user")
	}

	var hours []ProjectHours
	key := "hackatime:hours:" + hackatimeID
	err := cache.CacheAside(ctx, key, &hours, hoursCacheTTL, func() error {
		fetched, err := s.fetchHours(ctx, hackatimeID)
		if err != nil {
			return err
		}
		hours = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hours, nil
}

func (s *HackatimeService) fetchHours(ctx context.Context, hackatimeID string) ([]ProjectHours, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid hackatime base URL %q: %w", s.BaseURL, err)
	}
	endpoint := base.JoinPath("api", "v1", "users", hackatimeID, "stats")
	q := endpoint.Query()
	q.Set("features", "projects")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create hackatime request: %w", err)
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hackatime request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("hackatime returned %d: %s", resp.StatusCode, string(body))
	}

	var stats hackatimeStatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode hackatime response: %w", err)
	}

	hours := make([]ProjectHours, 0, len(stats.Data.Projects))
	for _, p := range stats.Data.Projects {
		hours = append(hours, ProjectHours{
			Name:         p.Name,
			TotalSeconds: p.TotalSeconds,
			Hours:        float64(p.TotalSeconds) / 3600,
		})
	}
	return hours, nil
}

// WarmCache refreshes hour totals for the owners of every in-review project.
// Reviewers look at those dashboards the most, so those entries stay hot.
func (s *HackatimeService) WarmCache(ctx context.Context) {
	var ids []string
	err := s.DB.Raw(`
		SELECT DISTINCT users.hackatime_id
		FROM projects
		INNER JOIN users ON users.external_user_id = projects.user_id
		WHERE projects.status = ? AND users.hackatime_id IS NOT NULL
	`, "in-review").Scan(&ids).Error
	if err != nil {
		log.Printf("[HOURS] ❌ Failed to list in-review owners: %v", err)
		return
	}

	for _, id := range ids {
		hours, err := s.fetchHours(ctx, id)
		if err != nil {
			log.Printf("[HOURS] ⚠️ Refresh failed for %s: %v", id, err)
			continue
		}
		_ = cache.SetJSON(ctx, "hackatime:hours:"+id, hours, hoursCacheTTL)
	}

	if len(ids) > 0 {
		log.Printf("[HOURS] ✅ Warmed hour totals for %d tracked user(s)", len(ids))
	}
}
