package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/service"
)

// UserHandler serves /users. Reads and registration are public; changes
// need a signed-in caller, and the service decides who may change what.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=32"`
	Password string `json:"password" validate:"required,max=72"`
	PhotoID  *int64 `json:"photo_id" validate:"omitempty,gt=0"`
}

type usernameRequest struct {
	Username string `json:"username" validate:"required,max=32"`
}

type photoRequest struct {
	PhotoID int64 `json:"photo_id" validate:"required,gt=0"`
}

// HandleList lists users.
//
// HTTP: GET /users?limit=&offset=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleFindAny returns the users matching any of the given names.
//
// HTTP: GET /users/or?username=alice&username=bob
func (h *UserHandler) HandleFindAny(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindAny(r.Context(), r.URL.Query()["username"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGet returns one user.
//
// HTTP: GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleRegister creates an account.
//
// HTTP: POST /users
// REQUEST BODY: {"username": "alice", "password": "secret", "photo_id": 3}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		PhotoID:  req.PhotoID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleUpdate changes the username.
//
// HTTP: PUT /users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req usernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.UpdateUsername(r.Context(), auth.CallerFromContext(r.Context()), id, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleSetPhoto points the profile photo at an uploaded file.
//
// HTTP: PUT /users/{id}/photo
// REQUEST BODY: {"photo_id": 3}
func (h *UserHandler) HandleSetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req photoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.SetPhoto(r.Context(), auth.CallerFromContext(r.Context()), id, req.PhotoID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete removes a user and their notes. Admin only.
//
// HTTP: DELETE /users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.users.Delete(r.Context(), auth.CallerFromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{ID: id, Deleted: true})
}
