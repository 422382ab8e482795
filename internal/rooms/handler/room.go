package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"campus/internal/rooms/service"
	apperrors "campus/pkg/errors"
	httputil "campus/pkg/http"
	"campus/pkg/logger"
	"campus/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RoomHandler struct {
	service service.RoomService
	log     *logger.Logger
}

func NewRoomHandler(service service.RoomService, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		log:     log,
	}
}

func (h *RoomHandler) AddRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var room model.Room
	if err := httputil.DecodeJSON(r, &room); err != nil {
		h.writeError(w, "AddRoom", err)
		return
	}

	if err := h.service.AddRoom(r.Context(), &room); err != nil {
		h.writeError(w, "AddRoom", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusCreated, "Room added successfully", "room", room); err != nil {
		h.log.Error("failed to write created response", "handler", "AddRoom", "operation", "WriteMessage", "error", err)
	}
}

func (h *RoomHandler) AddManyRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var raw json.RawMessage
	if err := httputil.DecodeJSON(r, &raw); err != nil {
		h.writeError(w, "AddManyRooms", err)
		return
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		h.writeError(w, "AddManyRooms", apperrors.InvalidInput("Request body must be a non-empty array"))
		return
	}

	var rooms []*model.Room
	if err := json.Unmarshal(raw, &rooms); err != nil {
		h.writeError(w, "AddManyRooms", apperrors.InvalidInput("invalid JSON body: "+err.Error()))
		return
	}

	if err := h.service.AddManyRooms(r.Context(), rooms); err != nil {
		h.writeError(w, "AddManyRooms", err)
		return
	}

	msg := fmt.Sprintf("%d rooms added successfully", len(rooms))
	if err := httputil.WriteMessage(w, http.StatusCreated, msg, "rooms", rooms); err != nil {
		h.log.Error("failed to write created response", "handler", "AddManyRooms", "operation", "WriteMessage", "error", err)
	}
}

func (h *RoomHandler) GetAllRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.service.GetAllRooms(r.Context())
	if err != nil {
		h.writeError(w, "GetAllRooms", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Rooms retrieved successfully", "rooms", rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAllRooms", "operation", "WriteMessage", "error", err)
	}
}

func (h *RoomHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *RoomHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/booking/add-room", h.AddRoom)
	router.POST("/api/booking/add-many-rooms", h.AddManyRooms)
	router.GET("/api/booking/get-all-rooms", h.GetAllRooms)
}
