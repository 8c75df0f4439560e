// Package api exposes the meeting management endpoints: user registration
// and instant/scheduled meeting creation. Live session traffic never goes
// through here; that is the websocket layer's job.
package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"meet-lab/errors"
	"meet-lab/repositories"
	"meet-lab/services"
)

type Handler struct {
	log        *slog.Logger
	scheduling *services.SchedulingService
	directory  repositories.IUserDirectory
}

func NewHandler(log *slog.Logger, scheduling *services.SchedulingService,
	directory repositories.IUserDirectory) *Handler {
	return &Handler{log: log, scheduling: scheduling, directory: directory}
}

// Register mounts the management routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", h.createUser)
	mux.HandleFunc("POST /api/meetings", h.createInstant)
	mux.HandleFunc("POST /api/meetings/schedule", h.schedule)
}

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var request createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if request.Email == "" {
		h.writeError(w, http.StatusBadRequest, stderrors.New("email is required"))
		return
	}

	// Idempotent on email: registering twice returns the existing account.
	if existing, err := h.directory.FindByEmail(request.Email); err == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"id": existing.ID, "email": existing.Email})
		return
	}

	id, err := h.directory.CreateUser(request.Email, request.Name)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id, "email": request.Email})
}

type createInstantRequest struct {
	CreatorEmail string `json:"creator_email"`
	Title        string `json:"title"`
}

func (h *Handler) createInstant(w http.ResponseWriter, r *http.Request) {
	var request createInstantRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	meeting, err := h.scheduling.CreateInstant(request.CreatorEmail, request.Title)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{
		"meeting_id": string(meeting.ID),
		"link":       meeting.Link,
	})
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	var request services.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	meeting, err := h.scheduling.Schedule(request)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"meeting_id": string(meeting.ID),
		"link":       meeting.Link,
		"invitees":   len(meeting.Expected),
	})
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrUserNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.log.Warn("Request rejected", "status", status, "error", err)
	h.writeJSON(w, status, map[string]string{"message": errors.SafeMessage(err)})
}
