package handler

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
)

type userResponse struct {
	ID          string   `json:"_id"`
	FirstName   string   `json:"fname"`
	LastName    string   `json:"lname"`
	Email       string   `json:"email"`
	DrinkIDs    []string `json:"drink_ids"`
	ReviewIDs   []string `json:"review_ids"`
	FavoriteIDs []string `json:"favorite_ids"`
}

type drinkResponse struct {
	ID          string              `json:"_id"`
	UserEmail   string              `json:"user_email"`
	Name        string              `json:"name"`
	Ingredients []domain.Ingredient `json:"ingredients"`
	Image       string              `json:"image,omitempty"`
	ReviewIDs   []string            `json:"review_ids"`
	Rating      float64             `json:"rating"`
	Sum         int                 `json:"sum"`
}

type reviewResponse struct {
	ID        string    `json:"_id"`
	UserEmail string    `json:"user_email"`
	DrinkID   string    `json:"drink_id"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	Date      time.Time `json:"date"`
}

// the password hash never leaves the service
func toUserResponse(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:          u.ID.Hex(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		DrinkIDs:    u.DrinkIDs.Hex(),
		ReviewIDs:   u.ReviewIDs.Hex(),
		FavoriteIDs: u.FavoriteIDs.Hex(),
	}
}

func toDrinkResponse(d *domain.Drink) *drinkResponse {
	if d == nil {
		return nil
	}
	ingredients := d.Ingredients
	if ingredients == nil {
		ingredients = []domain.Ingredient{}
	}
	return &drinkResponse{
		ID:          d.ID.Hex(),
		UserEmail:   d.CreatorEmail,
		Name:        d.Name,
		Ingredients: ingredients,
		Image:       d.Image,
		ReviewIDs:   d.ReviewIDs.Hex(),
		Rating:      d.Rating,
		Sum:         d.Sum,
	}
}

func toReviewResponse(r *domain.Review) *reviewResponse {
	if r == nil {
		return nil
	}
	return &reviewResponse{
		ID:        r.ID.Hex(),
		UserEmail: r.AuthorEmail,
		DrinkID:   r.DrinkID.Hex(),
		Comment:   r.Comment,
		Rating:    r.Rating,
		Date:      r.CreatedAt,
	}
}

func toUserResponses(users []*domain.User) []*userResponse {
	out := make([]*userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}

func toDrinkResponses(drinks []*domain.Drink) []*drinkResponse {
	out := make([]*drinkResponse, len(drinks))
	for i, d := range drinks {
		out[i] = toDrinkResponse(d)
	}
	return out
}

func toReviewResponses(reviews []*domain.Review) []*reviewResponse {
	out := make([]*reviewResponse, len(reviews))
	for i, r := range reviews {
		out[i] = toReviewResponse(r)
	}
	return out
}
