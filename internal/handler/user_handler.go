package handler

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/auth"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/middleware"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const userDNE = "User with that email DNE"

type UserHandler struct {
	users    UserService
	sessions auth.SessionStore
	logger   *logger.Logger
}

func NewUserHandler(users UserService, sessions auth.SessionStore, log *logger.Logger) *UserHandler {
	return &UserHandler{users: users, sessions: sessions, logger: log.Named("UserHTTPHandler")}
}

// requireSelf allows a request on /users/{email} only from that user.
func requireSelf(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := chi.URLParam(r, "email")
	if middleware.UserEmail(r.Context()) != email {
		respondWithError(w, http.StatusForbidden, "You can only modify your own account")
		return "", false
	}
	return email, true
}

func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	emails := r.URL.Query()["emails"]
	if len(emails) == 0 {
		respondWithError(w, http.StatusBadRequest, "Parameter `emails` cannot be empty.")
		return
	}
	users, err := h.users.GetUsers(r.Context(), emails)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, toUserResponses(users))
}

func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, userDNE)
		return
	}
	respondWithJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	email, ok := requireSelf(w, r)
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	// a new password goes through the sign-up policy and is stored hashed
	if raw, has := fields["pw"]; has {
		pw, isString := raw.(string)
		if !isString {
			respondWithError(w, http.StatusBadRequest, map[string]string{"pw": "Password must be a string"})
			return
		}
		if msg := passwordProblem(pw); msg != "" {
			respondWithError(w, http.StatusBadRequest, map[string]string{"pw": msg})
			return
		}
		hash, err := auth.HashPassword(pw)
		if err != nil {
			handleError(w, h.logger, err, http.StatusInternalServerError)
			return
		}
		fields["pw"] = hash
	}

	user, err := h.users.UpdateUser(r.Context(), email, fields)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, userDNE)
		return
	}
	respondWithJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	email, ok := requireSelf(w, r)
	if !ok {
		return
	}
	deleted, err := h.users.DeleteUser(r.Context(), email)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if !deleted {
		respondWithError(w, http.StatusNotFound, userDNE)
		return
	}
	if h.sessions != nil {
		if err := h.sessions.Revoke(r.Context(), middleware.TokenID(r.Context())); err != nil {
			h.logger.Warn("Failed to revoke session of deleted user", zap.String("email", email), zap.Error(err))
		}
	}
	respondWithJSON(w, http.StatusOK, email)
}

func (h *UserHandler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	email, ok := requireSelf(w, r)
	if !ok {
		return
	}
	user, err := h.users.AddFavorite(r.Context(), email, chi.URLParam(r, "drinkId"))
	if err != nil {
		handleError(w, h.logger, err, http.StatusNotFound)
		return
	}
	respondWithJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	email, ok := requireSelf(w, r)
	if !ok {
		return
	}
	removed, err := h.users.RemoveFavorite(r.Context(), email, chi.URLParam(r, "drinkId"))
	if err != nil {
		handleError(w, h.logger, err, http.StatusNotFound)
		return
	}
	if !removed {
		respondWithError(w, http.StatusNotFound, "Drink is not a favorite of this user")
		return
	}
	user, err := h.users.GetUser(r.Context(), email)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, toUserResponse(user))
}
