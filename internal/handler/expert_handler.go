package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trialconnect/agent/internal/domain"
	"github.com/trialconnect/agent/internal/dto"
	"github.com/trialconnect/agent/internal/gateway"
	"github.com/trialconnect/agent/internal/service"
)

// ExpertHandler serves the expert profile viewer: profile lookup,
// favorites, invites, and summaries
type ExpertHandler struct {
	favorites *service.FavoritesService
}

// NewExpertHandler creates a new expert handler
func NewExpertHandler(favorites *service.FavoritesService) *ExpertHandler {
	return &ExpertHandler{
		favorites: favorites,
	}
}

// Profile fetches a third-party-sourced expert profile
func (h *ExpertHandler) Profile(c *gin.Context) {
	q := gateway.ExpertQuery{
		Name:              c.Query("name"),
		Affiliation:       c.Query("affiliation"),
		Location:          c.Query("location"),
		ORCID:             c.Query("orcid"),
		Biography:         c.Query("biography"),
		ResearchInterests: c.Query("researchInterests"),
	}
	if q.Name == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "name is required",
		})
		return
	}

	profile, err := h.favorites.ExpertProfile(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Favorites lists the current favorites, loading them on first access
func (h *ExpertHandler) Favorites(c *gin.Context) {
	if err := h.favorites.Load(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.favorites.List())
}

// ToggleFavorite adds or removes one favorite
func (h *ExpertHandler) ToggleFavorite(c *gin.Context) {
	var req dto.ToggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	favorited, err := h.favorites.Toggle(c.Request.Context(), domain.FavoriteEntry{
		Type: domain.FavoriteType(req.Type),
		Item: req.Item,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToggleFavoriteResponse{
		Favorited: favorited,
		Favorites: h.favorites.List(),
	})
}

// CheckInvite reports whether the current user already invited this expert
func (h *ExpertHandler) CheckInvite(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "name is required",
		})
		return
	}

	invited, err := h.favorites.CheckInvited(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.InviteCheckResponse{HasInvited: invited})
}

// Invite sends an invite-to-platform for an off-platform expert
func (h *ExpertHandler) Invite(c *gin.Context) {
	var req dto.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	err := h.favorites.Invite(c.Request.Context(), domain.ExpertInvite{
		Name:        req.Name,
		ORCID:       req.ORCID,
		Affiliation: req.Affiliation,
		Location:    req.Location,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Invite sent",
	})
}

// Invites lists the invites the current user has sent
func (h *ExpertHandler) Invites(c *gin.Context) {
	invites, err := h.favorites.Invites(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, invites)
}

// Summarize requests an AI summary of profile text
func (h *ExpertHandler) Summarize(c *gin.Context) {
	var req dto.SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	summary, err := h.favorites.Summarize(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SummaryResponse{Summary: summary})
}
