package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/middleware"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

const (
	defaultReviewSample = 10
	reviewDNE           = "Review with that _id DNE"
)

type createReviewRequest struct {
	DrinkID string `json:"drink_id" validate:"required,len=24,hexadecimal"`
	Comment string `json:"comment"`
	Rating  *int   `json:"rating" validate:"required,min=1,max=5"`
}

type ReviewHandler struct {
	reviews ReviewService
	logger  *logger.Logger
}

func NewReviewHandler(reviews ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: log.Named("ReviewHTTPHandler")}
}

func (h *ReviewHandler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	ids, sample, msg := parseListQuery(r, defaultReviewSample)
	if msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}
	var (
		reviews []*domain.Review
		err     error
	)
	if ids != nil {
		reviews, err = h.reviews.GetReviews(r.Context(), ids)
	} else {
		reviews, err = h.reviews.SampleReviews(r.Context(), sample)
	}
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, toReviewResponses(reviews))
}

func (h *ReviewHandler) HandleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if errs := validationErrors(req); errs != nil {
		respondWithError(w, http.StatusBadRequest, errs)
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), middleware.UserEmail(r.Context()), req.DrinkID, req.Comment, *req.Rating)
	if err != nil {
		handleError(w, h.logger, err, http.StatusNotFound)
		return
	}
	respondWithJSON(w, http.StatusCreated, toReviewResponse(review))
}

func (h *ReviewHandler) HandleGetReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if review == nil {
		respondWithError(w, http.StatusNotFound, reviewDNE)
		return
	}
	respondWithJSON(w, http.StatusOK, toReviewResponse(review))
}

// authoredReview loads the {id} review and checks that the caller wrote it.
func (h *ReviewHandler) authoredReview(w http.ResponseWriter, r *http.Request) (*domain.Review, bool) {
	review, err := h.reviews.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return nil, false
	}
	if review == nil {
		respondWithError(w, http.StatusNotFound, reviewDNE)
		return nil, false
	}
	if review.AuthorEmail != middleware.UserEmail(r.Context()) {
		respondWithError(w, http.StatusForbidden, "Only the author can modify this review")
		return nil, false
	}
	return review, true
}

func (h *ReviewHandler) HandleUpdateReview(w http.ResponseWriter, r *http.Request) {
	review, ok := h.authoredReview(w, r)
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	updated, err := h.reviews.UpdateReview(r.Context(), review.ID.Hex(), fields)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if updated == nil {
		respondWithError(w, http.StatusNotFound, reviewDNE)
		return
	}
	respondWithJSON(w, http.StatusOK, toReviewResponse(updated))
}

func (h *ReviewHandler) HandleDeleteReview(w http.ResponseWriter, r *http.Request) {
	review, ok := h.authoredReview(w, r)
	if !ok {
		return
	}
	deleted, err := h.reviews.DeleteReview(r.Context(), review.ID.Hex())
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if !deleted {
		respondWithError(w, http.StatusNotFound, reviewDNE)
		return
	}
	respondWithJSON(w, http.StatusOK, review.ID.Hex())
}

// HandleDeleteReviews deletes every `_ids` review and returns the ids that
// were actually deleted. Nothing is deleted when any of the reviews was
// written by someone else.
func (h *ReviewHandler) HandleDeleteReviews(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["_ids"]
	if len(ids) == 0 {
		respondWithError(w, http.StatusBadRequest, "Parameter `_ids` cannot be empty.")
		return
	}
	reviews, err := h.reviews.GetReviews(r.Context(), ids)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	caller := middleware.UserEmail(r.Context())
	for _, rv := range reviews {
		if rv != nil && rv.AuthorEmail != caller {
			respondWithError(w, http.StatusForbidden, "Only the author can delete review "+rv.ID.Hex())
			return
		}
	}

	deletedIDs := make([]string, 0, len(ids))
	for i, rv := range reviews {
		if rv == nil {
			continue
		}
		deleted, err := h.reviews.DeleteReview(r.Context(), ids[i])
		if err != nil {
			handleError(w, h.logger, err, http.StatusInternalServerError)
			return
		}
		if deleted {
			deletedIDs = append(deletedIDs, ids[i])
		}
	}
	respondWithJSON(w, http.StatusOK, deletedIDs)
}
