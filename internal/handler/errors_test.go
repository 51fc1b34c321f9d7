package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/trialconnect/agent/internal/gateway"
	"github.com/trialconnect/agent/internal/service"
)

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not signed in", service.ErrNotSignedIn, http.StatusUnauthorized},
		{"invalid role", service.ErrInvalidRole, http.StatusBadRequest},
		{"meeting time required", service.ErrMeetingTimeRequired, http.StatusBadRequest},
		{"researcher only", service.ErrResearcherOnly, http.StatusForbidden},
		{"toggle in flight", service.ErrToggleInFlight, http.StatusConflict},
		{"already invited", service.ErrAlreadyInvited, http.StatusConflict},
		{"backend rejection keeps status", &gateway.APIError{Status: http.StatusNotFound, Message: "no such expert"}, http.StatusNotFound},
		{"transport failure", errors.New("dial tcp: connection refused"), http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
