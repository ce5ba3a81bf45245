package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"github.com/Shivanand-hulikatti/tour-booking/internal/service"
	"github.com/go-chi/chi/v5"
)

// UserHandler serves the /users routes.
type UserHandler struct {
	svc *service.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Save handles POST /users, called by the client after every login.
func (h *UserHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req model.SaveUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	u, err := h.svc.SaveUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	requestLog(r).WithField("admin", Principal(r.Context())).Info("listing users")
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Get handles GET /users/{email}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Role handles GET /users/{email}/role
func (h *UserHandler) Role(w http.ResponseWriter, r *http.Request) {
	role, err := h.svc.GetRole(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Role{"role": role})
}

// UpdateProfile handles PATCH /users/{email}
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), chi.URLParam(r, "email"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
