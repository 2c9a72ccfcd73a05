package handler

import (
	"net/http"

	"github.com/mcoot/farklegame/internal/api/middleware"
	"github.com/mcoot/farklegame/internal/api/response"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct{}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler() *PlayerHandler {
	return &PlayerHandler{}
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	profile := middleware.MustGetProfile(r.Context())
	response.JSON(w, http.StatusOK, response.ProfileFromModel(profile))
}
