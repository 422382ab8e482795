package handler

import (
	"net/http"
	"strings"

	"campus/internal/bookings/service"
	"campus/pkg/auth"
	apperrors "campus/pkg/errors"
	httputil "campus/pkg/http"
	"campus/pkg/logger"
	"campus/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const AdminRole = string(model.RoleAdmin)

type BookingHandler struct {
	service  service.BookingService
	resolver auth.IdentityResolver
	log      *logger.Logger
}

func NewBookingHandler(service service.BookingService, resolver auth.IdentityResolver, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service:  service,
		resolver: resolver,
		log:      log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateBookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusCreated, "Booking successful", "booking", booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteMessage", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter := model.BookingFilter{
		Room:   httputil.QueryValue(r, "room"),
		Date:   httputil.QueryValue(r, "date"),
		Status: model.BookingStatus(httputil.QueryValue(r, "status")),
	}

	bookings, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Bookings retrieved successfully", "bookings", nonNil(bookings)); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteMessage", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	booking, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Booking retrieved successfully", "booking", booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteMessage", "error", err)
	}
}

func (h *BookingHandler) GetByUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := ps.ByName("userId")

	bookings, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, "GetByUser", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Bookings retrieved successfully", "bookings", nonNil(bookings)); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByUser", "operation", "WriteMessage", "error", err)
	}
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var req model.UpdateStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Booking status updated successfully", "booking", booking); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteMessage", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Booking deleted successfully", "", nil); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "operation", "WriteMessage", "error", err)
	}
}

// bookingsSubtree serves GET /api/booking/bookings/<id> and
// GET /api/booking/bookings/user/<userId>. httprouter cannot register both
// patterns side by side.
func (h *BookingHandler) bookingsSubtree(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	parts := strings.Split(strings.TrimPrefix(ps.ByName("path"), "/"), "/")

	switch {
	case len(parts) == 2 && parts[0] == "user" && parts[1] != "":
		h.GetByUser(w, r, httprouter.Params{{Key: "userId", Value: parts[1]}})
	case len(parts) == 1 && parts[0] != "":
		h.GetByID(w, r, httprouter.Params{{Key: "id", Value: parts[0]}})
	default:
		h.writeError(w, "bookingsSubtree", apperrors.NotFound("Route"))
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func nonNil(views []*model.BookingView) []*model.BookingView {
	if views == nil {
		return []*model.BookingView{}
	}
	return views
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	admin := auth.RequireRoles(h.resolver, h.log, AdminRole)

	router.POST("/api/booking", h.Create)
	router.GET("/api/booking/bookings", admin(h.GetAll))
	router.GET("/api/booking/bookings/*path", admin(h.bookingsSubtree))
	router.PATCH("/api/booking/:id/status", admin(h.UpdateStatus))
	router.DELETE("/api/booking/bookings/:id", admin(h.Delete))
}
