package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/codec"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// UserUsecase is the user half of the repository facade.
type UserUsecase struct {
	store     domain.DocumentStore
	integrity *IntegrityManager
	logger    *logger.Logger
}

func NewUserUsecase(store domain.DocumentStore, integrity *IntegrityManager, log *logger.Logger) *UserUsecase {
	return &UserUsecase{
		store:     store,
		integrity: integrity,
		logger:    log.Named("UserUsecase"),
	}
}

// GetUser returns nil when no user has the email.
func (uc *UserUsecase) GetUser(ctx context.Context, email string) (*domain.User, error) {
	doc, err := uc.store.FindOne(ctx, domain.UsersCollection, bson.M{codec.FieldEmail: email})
	if err != nil {
		uc.logger.Error("Failed to get user", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return codec.UserFromDocument(doc)
}

// GetUsers returns one slot per email, nil for unknown emails.
func (uc *UserUsecase) GetUsers(ctx context.Context, emails []string) ([]*domain.User, error) {
	if len(emails) == 0 {
		return []*domain.User{}, nil
	}
	docs, err := uc.store.Find(ctx, domain.UsersCollection, bson.M{codec.FieldEmail: bson.M{"$in": emails}})
	if err != nil {
		uc.logger.Error("Failed to get users", zap.Strings("emails", emails), zap.Error(err))
		return nil, err
	}
	byEmail := make(map[string]*domain.User, len(docs))
	for _, doc := range docs {
		u, err := codec.UserFromDocument(doc)
		if err != nil {
			return nil, err
		}
		byEmail[u.Email] = u
	}
	out := make([]*domain.User, len(emails))
	for i, email := range emails {
		out[i] = byEmail[email]
	}
	return out, nil
}

// CreateUser is idempotent on email: an existing user is returned unchanged.
func (uc *UserUsecase) CreateUser(ctx context.Context, firstName, lastName, email, passwordHash string) (*domain.User, error) {
	uc.logger.Info("Creating user", zap.String("email", email))

	existing, err := uc.GetUser(ctx, email)
	if err != nil || existing != nil {
		return existing, err
	}

	user := domain.NewUser(firstName, lastName, email, passwordHash)
	id, err := uc.store.InsertOne(ctx, domain.UsersCollection, codec.UserToDocument(user))
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// lost a race with a concurrent sign-up
			return uc.GetUser(ctx, email)
		}
		uc.logger.Error("Failed to insert user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	uc.logger.Info("User created", zap.String("user_id", id.Hex()))
	return user, nil
}

// UpdateUser sets name or password fields. Returns nil when the user does not
// exist or fields is empty.
func (uc *UserUsecase) UpdateUser(ctx context.Context, email string, fields map[string]interface{}) (*domain.User, error) {
	set, err := sanitizeFields(userFieldRules, fields)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, nil
	}
	doc, err := uc.store.UpdateOne(ctx, domain.UsersCollection, bson.M{codec.FieldEmail: email}, bson.M{"$set": set})
	if err != nil {
		uc.logger.Error("Failed to update user", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return codec.UserFromDocument(doc)
}

// DeleteUser removes the user document only. Drinks and reviews the user
// created are left in place.
func (uc *UserUsecase) DeleteUser(ctx context.Context, email string) (bool, error) {
	doc, err := uc.store.DeleteOne(ctx, domain.UsersCollection, bson.M{codec.FieldEmail: email})
	if err != nil {
		uc.logger.Error("Failed to delete user", zap.String("email", email), zap.Error(err))
		return false, err
	}
	if doc == nil {
		return false, nil
	}
	uc.logger.Info("User deleted", zap.String("email", email))
	return true, nil
}

func (uc *UserUsecase) SampleUsers(ctx context.Context, n int) ([]*domain.User, error) {
	if n <= 0 {
		return nil, domain.ErrInvalidSampleSize
	}
	docs, err := uc.store.Sample(ctx, domain.UsersCollection, n)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(docs))
	for _, doc := range docs {
		u, err := codec.UserFromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// AddFavorite marks an existing drink as a favorite of the user.
func (uc *UserUsecase) AddFavorite(ctx context.Context, email, drinkID string) (*domain.User, error) {
	id, err := domain.ParseID(drinkID)
	if err != nil {
		return nil, err
	}
	drink, err := uc.store.FindOne(ctx, domain.DrinksCollection, bson.M{codec.FieldID: id})
	if err != nil {
		return nil, err
	}
	if drink == nil {
		return nil, domain.ErrDrinkNotFound
	}
	return uc.integrity.AttachItem(ctx, domain.KindFavorite, email, id)
}

// RemoveFavorite reports whether the drink was a favorite.
func (uc *UserUsecase) RemoveFavorite(ctx context.Context, email, drinkID string) (bool, error) {
	id, err := domain.ParseID(drinkID)
	if err != nil {
		return false, err
	}
	return uc.integrity.DetachItem(ctx, domain.KindFavorite, email, id)
}
