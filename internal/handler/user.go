package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/taskapi/internal/apperror"
	"github.com/sakif/taskapi/internal/model"
)

// Verification and deletion answer with bare JSON strings.
const (
	msgUserVerified    = "User Verified"
	msgUserNotVerified = "User could not be Verified"
	msgUserDeleted     = "User Deleted!"
)

// UserService is the part of service.UserService the handler calls.
// Declaring it here lets tests swap in a fake.
type UserService interface {
	Add(ctx context.Context, username, password, email string) (*model.User, error)
	Verify(ctx context.Context, username, password string) error
	List(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, id int64) error
	UpdateProfile(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error)
	UpdatePassword(ctx context.Context, id int64, password string) (*model.User, error)
}

type addUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type verifyRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitnil,min=1"`
	Email    *string `json:"email" validate:"omitnil,email"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required"`
}

// UserHandler serves the /user routes.
type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleAdd registers a user.
//
// HTTP: POST /user/add
// REQUEST BODY: {"username": "alice", "password": "secret123", "email": "a@x.com"}
// RESPONSE: 201 {"id": 1, "username": "alice", "email": "a@x.com"}
func (h *UserHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if err := decodeJSON(r, &req, "user add"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Add(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, NewUserRecord(user))
}

// HandleVerify checks a username/password pair.
//
// HTTP: POST /user/verify
// RESPONSE: 200 "User Verified" or 401 "User could not be Verified"
//
// An unknown username and a wrong password produce byte-identical
// responses. No session or token is issued.
func (h *UserHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req, "user verify"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	err := h.users.Verify(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, msgUserVerified)
	case errors.Is(err, apperror.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, msgUserNotVerified)
	default:
		writeError(w, r, h.logger, err)
	}
}

// HandleList returns every user.
//
// HTTP: GET /user/get
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, NewUserRecords(users))
}

// HandleDelete removes a user. A missing id is a 404, not a silent success.
//
// HTTP: DELETE /user/delete/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msgUserDeleted)
}

// HandleUpdate changes the username and/or email.
//
// HTTP: PUT /user/update/{id}
// REQUEST BODY: {"username": "new"} or {"email": "n@x.com"} or both
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req, "user update"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), id, model.UserPatch{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, NewUserRecord(user))
}

// HandlePassword replaces a user's password.
//
// HTTP: PUT /user/pw/{id}
func (h *UserHandler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req passwordRequest
	if err := decodeJSON(r, &req, "password update"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.UpdatePassword(r.Context(), id, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("password updated via API", slog.Int64("id", user.ID))
	writeJSON(w, http.StatusOK, NewUserRecord(user))
}
