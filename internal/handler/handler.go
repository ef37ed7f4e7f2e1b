package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/auth"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"go.uber.org/zap"
)

// UserService is the user half of the repository facade.
type UserService interface {
	GetUser(ctx context.Context, email string) (*domain.User, error)
	GetUsers(ctx context.Context, emails []string) ([]*domain.User, error)
	CreateUser(ctx context.Context, firstName, lastName, email, passwordHash string) (*domain.User, error)
	UpdateUser(ctx context.Context, email string, fields map[string]interface{}) (*domain.User, error)
	DeleteUser(ctx context.Context, email string) (bool, error)
	AddFavorite(ctx context.Context, email, drinkID string) (*domain.User, error)
	RemoveFavorite(ctx context.Context, email, drinkID string) (bool, error)
}

type DrinkService interface {
	GetDrink(ctx context.Context, id string) (*domain.Drink, error)
	GetDrinks(ctx context.Context, ids []string) ([]*domain.Drink, error)
	CreateDrink(ctx context.Context, email, name string, ingredients []domain.Ingredient) (*domain.Drink, error)
	UpdateDrink(ctx context.Context, id string, fields map[string]interface{}) (*domain.Drink, error)
	DeleteDrink(ctx context.Context, id string) (bool, error)
	SampleDrinks(ctx context.Context, n int) ([]*domain.Drink, error)
}

type ReviewService interface {
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	GetReviews(ctx context.Context, ids []string) ([]*domain.Review, error)
	CreateReview(ctx context.Context, email, drinkID, comment string, rating int) (*domain.Review, error)
	UpdateReview(ctx context.Context, id string, fields map[string]interface{}) (*domain.Review, error)
	DeleteReview(ctx context.Context, id string) (bool, error)
	SampleReviews(ctx context.Context, n int) ([]*domain.Review, error)
}

// envelope is the body of every response.
type envelope struct {
	Data interface{} `json:"data"`
}

type errorBody struct {
	Res interface{} `json:"res"`
	Err interface{} `json:"err"`
}

func respondWithJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

// respondWithError writes {"data": {"res": null, "err": msg}}. msg is a
// string or a field -> message map.
func respondWithError(w http.ResponseWriter, code int, msg interface{}) {
	respondWithJSON(w, code, errorBody{Err: msg})
}

// handleError maps a usecase error to a status code. referentStatus is used
// for ErrReferentMissing: 404 where the caller named the referent (creates,
// favorites), 500 where it vanished mid-operation.
func handleError(w http.ResponseWriter, log *logger.Logger, err error, referentStatus int) {
	code := http.StatusInternalServerError
	msg := "internal server error"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrReferentMissing) && referentStatus == http.StatusNotFound:
		code, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrConcurrentUpdate), errors.Is(err, domain.ErrAlreadyExists):
		code, msg = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrInvalidToken):
		code, msg = http.StatusUnauthorized, err.Error()
	}
	if code >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.Int("status", code), zap.Error(err))
	}
	respondWithError(w, code, msg)
}

// fieldsRequest is the body of every PUT.
type fieldsRequest struct {
	Fields map[string]interface{} `json:"fields"`
}

func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	var req fieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	if req.Fields == nil {
		respondWithError(w, http.StatusBadRequest, "Missing fields parameter.")
		return nil, false
	}
	if len(req.Fields) == 0 {
		respondWithError(w, http.StatusBadRequest, "Parameter 'fields' cannot be empty.")
		return nil, false
	}
	return req.Fields, true
}

// parseListQuery reads the `_ids` / `sample` pair shared by the drink and
// review collections. ids is nil when sampling.
func parseListQuery(r *http.Request, defaultSample int) (ids []string, sample int, errMsg string) {
	q := r.URL.Query()
	ids, hasIDs := q["_ids"]
	rawSample, hasSample := q["sample"]
	if hasIDs && hasSample {
		return nil, 0, "Cannot use `_ids` and `sample` together."
	}
	if hasIDs {
		return ids, 0, ""
	}
	if !hasSample {
		return nil, defaultSample, ""
	}
	n, err := strconv.Atoi(rawSample[0])
	if err != nil || n <= 0 {
		return nil, 0, "Parameter `sample` must be a positive integer."
	}
	return nil, n, ""
}
