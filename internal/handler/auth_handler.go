package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trialconnect/agent/internal/domain"
	"github.com/trialconnect/agent/internal/dto"
	"github.com/trialconnect/agent/internal/service"
	"github.com/trialconnect/agent/internal/store"
)

// AuthHandler handles the OAuth callback and profile completion flows
type AuthHandler struct {
	callback *service.CallbackService
	profile  *service.ProfileService
	events   *service.Broadcaster
	store    store.Store
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(callback *service.CallbackService, profile *service.ProfileService, events *service.Broadcaster, st store.Store) *AuthHandler {
	return &AuthHandler{
		callback: callback,
		profile:  profile,
		events:   events,
		store:    st,
	}
}

// Callback resolves the OAuth redirect. The outcome is always 200: even a
// failed sync is a decision for the UI, not a transport error.
func (h *AuthHandler) Callback(c *gin.Context) {
	var req dto.CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	outcome := h.callback.HandleCallback(c.Request.Context(), req.Assertion())

	c.JSON(http.StatusOK, dto.CallbackResponse{
		Outcome: string(outcome.Kind),
		Role:    string(outcome.Role),
		Route:   outcome.Route(),
		Message: outcome.Message,
	})
}

// CompleteProfile finalizes a first-time OAuth account with the chosen role
func (h *AuthHandler) CompleteProfile(c *gin.Context) {
	var req dto.CompleteProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	var assertion *domain.IdentityAssertion
	if req.Assertion != nil {
		a := req.Assertion.Assertion()
		assertion = &a
	}

	result, err := h.profile.Complete(c.Request.Context(), domain.Role(req.Role), assertion)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CompleteProfileResponse{
		User:  result.Session.User,
		Route: result.Route,
	})
}

// AbandonProfile discards the pending identity snapshot when the user
// leaves the profile completion screen without choosing a role
func (h *AuthHandler) AbandonProfile(c *gin.Context) {
	if err := h.profile.Abandon(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Pending profile discarded",
	})
}

// Session reports the locally held session
func (h *AuthHandler) Session(c *gin.Context) {
	sess, err := h.store.Session(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
		return
	}

	if sess == nil || tokenExpired(sess.Token) {
		if sess != nil {
			_ = h.store.ClearSession(c.Request.Context())
		}
		c.JSON(http.StatusOK, dto.SessionResponse{SignedIn: false})
		return
	}

	c.JSON(http.StatusOK, dto.SessionResponse{
		SignedIn: true,
		User:     &sess.User,
	})
}

// OTPExpiry reports when the verification code for an email expires, so
// the verification screen can show a countdown
func (h *AuthHandler) OTPExpiry(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "email is required",
		})
		return
	}

	at, err := h.store.OTPExpiry(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"otpExpiresAt": at})
}

// Events streams login-completed signals as server-sent events, so every
// open UI surface reacts to a sign-in finishing in another one.
func (h *AuthHandler) Events(c *gin.Context) {
	id, logins := h.events.Subscribe()
	defer h.events.Unsubscribe(id)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case user, ok := <-logins:
			if !ok {
				return false
			}
			c.SSEvent("login", user)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// SignOut clears the local session
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.store.ClearSession(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Signed out",
	})
}
