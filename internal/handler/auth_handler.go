package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/auth"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/middleware"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"go.uber.org/zap"
)

const welcomeEmailTimeout = 10 * time.Second

// WelcomeSender mails new accounts; mailer.SMTPSender implements it.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, to, firstName string) error
}

type signupRequest struct {
	FirstName string `json:"fname" validate:"required,fname"`
	LastName  string `json:"lname" validate:"required,lname"`
	Email     string `json:"email" validate:"required,emailaddr"`
	Password  string `json:"pw" validate:"required,password"`
}

// The password policy is not applied on login so accounts created under an
// older policy can still sign in.
type loginRequest struct {
	Email    string `json:"email" validate:"required,emailaddr"`
	Password string `json:"pw" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthHandler struct {
	users    UserService
	tokens   *auth.TokenManager
	sessions auth.SessionStore
	mailer   WelcomeSender
	logger   *logger.Logger
}

// NewAuthHandler builds the sign-up/login handler. mailer may be nil.
func NewAuthHandler(users UserService, tokens *auth.TokenManager, sessions auth.SessionStore, mailer WelcomeSender, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		mailer:   mailer,
		logger:   log.Named("AuthHTTPHandler"),
	}
}

func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if errs := validationErrors(req); errs != nil {
		respondWithError(w, http.StatusBadRequest, errs)
		return
	}

	existing, err := h.users.GetUser(r.Context(), req.Email)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if existing != nil {
		respondWithError(w, http.StatusConflict, "User with that email already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	user, err := h.users.CreateUser(r.Context(), req.FirstName, req.LastName, req.Email, hash)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}

	if h.mailer != nil {
		ctx, cancel := context.WithTimeout(r.Context(), welcomeEmailTimeout)
		if err := h.mailer.SendWelcome(ctx, user.Email, user.FirstName); err != nil {
			h.logger.Warn("Welcome email not sent", zap.String("email", user.Email), zap.Error(err))
		}
		cancel()
	}
	respondWithJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if errs := validationErrors(req); errs != nil {
		respondWithError(w, http.StatusBadRequest, errs)
		return
	}

	user, err := h.users.GetUser(r.Context(), req.Email)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if user == nil || !auth.CheckPassword(user.Password, req.Password) {
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, claims, err := h.tokens.Issue(user.Email)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if h.sessions != nil {
		if err := h.sessions.Save(r.Context(), claims.ID, user.Email, h.tokens.TTL()); err != nil {
			handleError(w, h.logger, err, http.StatusInternalServerError)
			return
		}
	}
	h.logger.Info("User logged in", zap.String("email", user.Email))
	respondWithJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time})
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if h.sessions != nil {
		if err := h.sessions.Revoke(r.Context(), middleware.TokenID(r.Context())); err != nil {
			handleError(w, h.logger, err, http.StatusInternalServerError)
			return
		}
	}
	respondWithJSON(w, http.StatusOK, middleware.UserEmail(r.Context()))
}
