package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/farklegame/internal/api/apierr"
	"github.com/mcoot/farklegame/internal/api/middleware"
	"github.com/mcoot/farklegame/internal/api/request"
	"github.com/mcoot/farklegame/internal/api/response"
	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/services/room"
	"github.com/mcoot/farklegame/internal/web/ws"
)

// RoomHandler handles room-related endpoints
type RoomHandler struct {
	controller *room.Controller
	gateway    *ws.Gateway
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(controller *room.Controller, gateway *ws.Gateway) *RoomHandler {
	return &RoomHandler{
		controller: controller,
		gateway:    gateway,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	profile := middleware.MustGetProfile(r.Context())

	var req request.CreateRoomRequest
	if err := request.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError(err.Error()))
		return
	}

	created, err := h.controller.Create(r.Context(), req.Name, *profile, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromModel(created))
}

// Enter handles POST /api/v1/rooms/enter
func (h *RoomHandler) Enter(w http.ResponseWriter, r *http.Request) {
	profile := middleware.MustGetProfile(r.Context())

	var req request.EnterRoomRequest
	if err := request.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError(err.Error()))
		return
	}

	entered, err := h.controller.Enter(r.Context(), req.Name, *profile, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(entered))
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	found, err := h.controller.GetRoom(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(found))
}

// Connect handles GET /api/v1/rooms/{id}/ws
func (h *RoomHandler) Connect(w http.ResponseWriter, r *http.Request) {
	profile := middleware.MustGetProfile(r.Context())
	id := model.RoomID(mux.Vars(r)["id"])

	h.gateway.ServeRoom(w, r, id, *profile)
}
