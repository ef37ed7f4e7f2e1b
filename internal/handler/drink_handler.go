package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/codec"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/middleware"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultDrinkSample = 9
	maxImageSize       = 5 << 20
	drinkDNE           = "Drink with that _id DNE"
)

// ImageStorage stores drink images; s3.Storage implements it.
type ImageStorage interface {
	UploadImage(ctx context.Context, drinkID, originalFileName, contentType string, data []byte) (string, error)
}

type createDrinkRequest struct {
	Name        string     `json:"name" validate:"required"`
	Ingredients [][]string `json:"ingredients" validate:"required,min=1,dive,min=1"`
}

type DrinkHandler struct {
	drinks DrinkService
	images ImageStorage
	logger *logger.Logger
}

// NewDrinkHandler builds the drink handler. images may be nil, image uploads
// then answer 503.
func NewDrinkHandler(drinks DrinkService, images ImageStorage, log *logger.Logger) *DrinkHandler {
	return &DrinkHandler{drinks: drinks, images: images, logger: log.Named("DrinkHTTPHandler")}
}

func (h *DrinkHandler) HandleListDrinks(w http.ResponseWriter, r *http.Request) {
	ids, sample, msg := parseListQuery(r, defaultDrinkSample)
	if msg != "" {
		respondWithError(w, http.StatusBadRequest, msg)
		return
	}
	var (
		drinks []*domain.Drink
		err    error
	)
	if ids != nil {
		drinks, err = h.drinks.GetDrinks(r.Context(), ids)
	} else {
		drinks, err = h.drinks.SampleDrinks(r.Context(), sample)
	}
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, toDrinkResponses(drinks))
}

func (h *DrinkHandler) HandleCreateDrink(w http.ResponseWriter, r *http.Request) {
	var req createDrinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if errs := validationErrors(req); errs != nil {
		respondWithError(w, http.StatusBadRequest, errs)
		return
	}
	ingredients := make([]domain.Ingredient, len(req.Ingredients))
	for i, line := range req.Ingredients {
		ingredients[i] = domain.Ingredient(line)
	}

	drink, err := h.drinks.CreateDrink(r.Context(), middleware.UserEmail(r.Context()), req.Name, ingredients)
	if err != nil {
		handleError(w, h.logger, err, http.StatusNotFound)
		return
	}
	respondWithJSON(w, http.StatusCreated, toDrinkResponse(drink))
}

func (h *DrinkHandler) HandleGetDrink(w http.ResponseWriter, r *http.Request) {
	drink, err := h.drinks.GetDrink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if drink == nil {
		respondWithError(w, http.StatusNotFound, drinkDNE)
		return
	}
	respondWithJSON(w, http.StatusOK, toDrinkResponse(drink))
}

// ownedDrink loads the {id} drink and checks that the caller created it.
func (h *DrinkHandler) ownedDrink(w http.ResponseWriter, r *http.Request) (*domain.Drink, bool) {
	drink, err := h.drinks.GetDrink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return nil, false
	}
	if drink == nil {
		respondWithError(w, http.StatusNotFound, drinkDNE)
		return nil, false
	}
	if drink.CreatorEmail != middleware.UserEmail(r.Context()) {
		respondWithError(w, http.StatusForbidden, "Only the creator can modify this drink")
		return nil, false
	}
	return drink, true
}

func (h *DrinkHandler) HandleUpdateDrink(w http.ResponseWriter, r *http.Request) {
	drink, ok := h.ownedDrink(w, r)
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	updated, err := h.drinks.UpdateDrink(r.Context(), drink.ID.Hex(), fields)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if updated == nil {
		respondWithError(w, http.StatusNotFound, drinkDNE)
		return
	}
	respondWithJSON(w, http.StatusOK, toDrinkResponse(updated))
}

func (h *DrinkHandler) HandleDeleteDrink(w http.ResponseWriter, r *http.Request) {
	drink, ok := h.ownedDrink(w, r)
	if !ok {
		return
	}
	deleted, err := h.drinks.DeleteDrink(r.Context(), drink.ID.Hex())
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if !deleted {
		respondWithError(w, http.StatusNotFound, drinkDNE)
		return
	}
	respondWithJSON(w, http.StatusOK, drink.ID.Hex())
}

// HandleDeleteDrinks deletes every `_ids` drink. The result has one slot per
// id: the id when it was deleted, null when no such drink existed. Nothing is
// deleted when any of the drinks belongs to someone else.
func (h *DrinkHandler) HandleDeleteDrinks(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["_ids"]
	if len(ids) == 0 {
		respondWithError(w, http.StatusBadRequest, "Parameter `_ids` cannot be empty.")
		return
	}
	drinks, err := h.drinks.GetDrinks(r.Context(), ids)
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	caller := middleware.UserEmail(r.Context())
	for _, d := range drinks {
		if d != nil && d.CreatorEmail != caller {
			respondWithError(w, http.StatusForbidden, "Only the creator can delete drink "+d.ID.Hex())
			return
		}
	}

	res := make([]*string, len(ids))
	for i, d := range drinks {
		if d == nil {
			continue
		}
		deleted, err := h.drinks.DeleteDrink(r.Context(), ids[i])
		if err != nil {
			handleError(w, h.logger, err, http.StatusInternalServerError)
			return
		}
		if deleted {
			res[i] = &ids[i]
		}
	}
	respondWithJSON(w, http.StatusOK, res)
}

// HandleUploadImage stores the multipart `image` file and points the drink's
// image field at it.
func (h *DrinkHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Image uploads are not configured")
		return
	}
	drink, ok := h.ownedDrink(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Missing `image` file: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Could not read image: "+err.Error())
		return
	}
	if len(data) > maxImageSize {
		respondWithError(w, http.StatusRequestEntityTooLarge, "Image is too large")
		return
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		respondWithError(w, http.StatusBadRequest, "File is not an image")
		return
	}

	url, err := h.images.UploadImage(r.Context(), drink.ID.Hex(), header.Filename, contentType, data)
	if err != nil {
		h.logger.Error("Image upload failed", zap.String("drink_id", drink.ID.Hex()), zap.Error(err))
		respondWithError(w, http.StatusBadGateway, "Image upload failed")
		return
	}
	updated, err := h.drinks.UpdateDrink(r.Context(), drink.ID.Hex(), map[string]interface{}{codec.FieldImage: url})
	if err != nil {
		handleError(w, h.logger, err, http.StatusInternalServerError)
		return
	}
	if updated == nil {
		respondWithError(w, http.StatusNotFound, drinkDNE)
		return
	}
	respondWithJSON(w, http.StatusOK, toDrinkResponse(updated))
}
