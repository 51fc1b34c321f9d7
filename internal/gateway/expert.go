package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/trialconnect/agent/internal/domain"
)

// ExpertQuery identifies an expert by the fields the profile page knows.
type ExpertQuery struct {
	Name              string
	Affiliation       string
	Location          string
	ORCID             string
	Biography         string
	ResearchInterests string
}

func (q ExpertQuery) values() url.Values {
	v := url.Values{}
	v.Set("name", q.Name)
	if q.Affiliation != "" {
		v.Set("affiliation", q.Affiliation)
	}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.ORCID != "" {
		v.Set("orcid", q.ORCID)
	}
	if q.Biography != "" {
		v.Set("biography", q.Biography)
	}
	if q.ResearchInterests != "" {
		v.Set("researchInterests", q.ResearchInterests)
	}
	return v
}

// ExpertProfile fetches a third-party-sourced expert profile.
func (c *Client) ExpertProfile(ctx context.Context, token string, q ExpertQuery) (*domain.ExpertProfile, error) {
	var resp struct {
		Profile domain.ExpertProfile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/expert/profile", q.values(), token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

// Favorites lists the authoritative favorites for a user.
func (c *Client) Favorites(ctx context.Context, token, userID string) ([]domain.FavoriteEntry, error) {
	var list []domain.FavoriteEntry
	if err := c.do(ctx, http.MethodGet, "/api/favorites/"+userID, nil, token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AddFavorite stores a denormalized favorite snapshot.
func (c *Client) AddFavorite(ctx context.Context, token, userID string, entry domain.FavoriteEntry) error {
	return c.do(ctx, http.MethodPost, "/api/favorites/"+userID, nil, token, entry, nil)
}

// RemoveFavorite deletes a favorite by type and id.
func (c *Client) RemoveFavorite(ctx context.Context, token, userID string, typ domain.FavoriteType, id string) error {
	q := url.Values{}
	q.Set("type", string(typ))
	q.Set("id", id)
	return c.do(ctx, http.MethodDelete, "/api/favorites/"+userID, q, token, nil, nil)
}

// CheckInvite reports whether the inviter has already invited this expert.
func (c *Client) CheckInvite(ctx context.Context, token, inviterID, expertName string) (bool, error) {
	q := url.Values{}
	q.Set("inviterId", inviterID)
	q.Set("name", expertName)

	var resp struct {
		HasInvited bool `json:"hasInvited"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/expert-invites/check", q, token, nil, &resp); err != nil {
		return false, err
	}
	return resp.HasInvited, nil
}

// SendInvite records an invite-to-platform for an off-platform expert.
func (c *Client) SendInvite(ctx context.Context, token string, inv domain.ExpertInvite) error {
	return c.do(ctx, http.MethodPost, "/api/expert-invites", nil, token, inv, nil)
}

// Invites lists the invites sent by a user.
func (c *Client) Invites(ctx context.Context, token, inviterID string) ([]domain.ExpertInvite, error) {
	q := url.Values{}
	q.Set("inviterId", inviterID)

	var list []domain.ExpertInvite
	if err := c.do(ctx, http.MethodGet, "/api/expert-invites", q, token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Summarize requests an AI summary of the given text.
func (c *Client) Summarize(ctx context.Context, token, text string) (string, error) {
	req := map[string]string{"text": text}
	var resp struct {
		Summary string `json:"summary"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/ai/summary", nil, token, req, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}
