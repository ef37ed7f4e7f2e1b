package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/codec"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/domain"
	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DrinkUsecase is the drink half of the repository facade.
type DrinkUsecase struct {
	store     domain.DocumentStore
	integrity *IntegrityManager
	events    EventPublisher
	logger    *logger.Logger
}

func NewDrinkUsecase(store domain.DocumentStore, integrity *IntegrityManager, events EventPublisher, log *logger.Logger) *DrinkUsecase {
	return &DrinkUsecase{
		store:     store,
		integrity: integrity,
		events:    publisherOrNoop(events),
		logger:    log.Named("DrinkUsecase"),
	}
}

// GetDrink returns nil when the drink does not exist.
func (uc *DrinkUsecase) GetDrink(ctx context.Context, id string) (*domain.Drink, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	doc, err := uc.store.FindOne(ctx, domain.DrinksCollection, bson.M{codec.FieldID: oid})
	if err != nil {
		uc.logger.Error("Failed to get drink", zap.String("drink_id", id), zap.Error(err))
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return codec.DrinkFromDocument(doc)
}

// GetDrinks returns one slot per id, nil for absent drinks.
func (uc *DrinkUsecase) GetDrinks(ctx context.Context, ids []string) ([]*domain.Drink, error) {
	oids, err := parseIDs(ids)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Drink, len(oids))
	if len(oids) == 0 {
		return out, nil
	}
	docs, err := uc.store.Find(ctx, domain.DrinksCollection, bson.M{codec.FieldID: bson.M{"$in": oids}})
	if err != nil {
		uc.logger.Error("Failed to get drinks", zap.Strings("drink_ids", ids), zap.Error(err))
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*domain.Drink, len(docs))
	for _, doc := range docs {
		d, err := codec.DrinkFromDocument(doc)
		if err != nil {
			return nil, err
		}
		byID[d.ID] = d
	}
	for i, oid := range oids {
		out[i] = byID[oid]
	}
	return out, nil
}

// CreateDrink is idempotent on (creator, name). The creator must exist.
func (uc *DrinkUsecase) CreateDrink(ctx context.Context, email, name string, ingredients []domain.Ingredient) (*domain.Drink, error) {
	uc.logger.Info("Creating drink", zap.String("user_email", email), zap.String("name", name))

	existing, err := uc.findByKey(ctx, email, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// re-link in case an earlier attempt stopped before the attach
		if _, err := uc.integrity.AttachItem(ctx, domain.KindDrink, email, existing.ID); err != nil {
			return nil, err
		}
		return existing, nil
	}

	creator, err := uc.store.FindOne(ctx, domain.UsersCollection, bson.M{codec.FieldEmail: email})
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, domain.ErrUserNotFound
	}

	drink := domain.NewDrink(email, name, ingredients)
	id, err := uc.store.InsertOne(ctx, domain.DrinksCollection, codec.DrinkToDocument(drink))
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return uc.findByKey(ctx, email, name)
		}
		uc.logger.Error("Failed to insert drink", zap.Error(err))
		return nil, fmt.Errorf("create drink: %w", err)
	}
	drink.ID = id

	if _, err := uc.integrity.AttachItem(ctx, domain.KindDrink, email, id); err != nil {
		uc.logger.Error("Failed to link drink to creator, rolling back", zap.String("drink_id", id.Hex()), zap.Error(err))
		if _, delErr := uc.store.DeleteOne(ctx, domain.DrinksCollection, bson.M{codec.FieldID: id}); delErr != nil {
			uc.logger.Error("Rollback of drink insert failed", zap.String("drink_id", id.Hex()), zap.Error(delErr))
		}
		return nil, err
	}

	publish(ctx, uc.events, uc.logger, SubjectDrinkCreated, map[string]interface{}{
		"drink_id":   id.Hex(),
		"user_email": email,
		"name":       name,
		"created_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	uc.logger.Info("Drink created", zap.String("drink_id", id.Hex()))
	return drink, nil
}

func (uc *DrinkUsecase) findByKey(ctx context.Context, email, name string) (*domain.Drink, error) {
	doc, err := uc.store.FindOne(ctx, domain.DrinksCollection, bson.M{codec.FieldUserEmail: email, codec.FieldName: name})
	if err != nil || doc == nil {
		return nil, err
	}
	return codec.DrinkFromDocument(doc)
}

// UpdateDrink sets name, ingredients or image. Returns nil when the drink does
// not exist or fields is empty.
func (uc *DrinkUsecase) UpdateDrink(ctx context.Context, id string, fields map[string]interface{}) (*domain.Drink, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	set, err := sanitizeFields(drinkFieldRules, fields)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, nil
	}
	doc, err := uc.store.UpdateOne(ctx, domain.DrinksCollection, bson.M{codec.FieldID: oid}, bson.M{"$set": set})
	if err != nil {
		uc.logger.Error("Failed to update drink", zap.String("drink_id", id), zap.Error(err))
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return codec.DrinkFromDocument(doc)
}

// DeleteDrink cascades to the drink's reviews. Reports whether a drink was removed.
func (uc *DrinkUsecase) DeleteDrink(ctx context.Context, id string) (bool, error) {
	oid, err := domain.ParseID(id)
	if err != nil {
		return false, err
	}
	drink, err := uc.integrity.DeleteDrink(ctx, oid)
	if err != nil {
		uc.logger.Error("Failed to delete drink", zap.String("drink_id", id), zap.Error(err))
		return drink != nil, err
	}
	if drink == nil {
		return false, nil
	}
	publish(ctx, uc.events, uc.logger, SubjectDrinkDeleted, map[string]interface{}{
		"drink_id":     id,
		"user_email":   drink.CreatorEmail,
		"review_count": drink.ReviewCount(),
		"deleted_at":   time.Now().UTC().Format(time.RFC3339Nano),
	})
	uc.logger.Info("Drink deleted", zap.String("drink_id", id))
	return true, nil
}

func (uc *DrinkUsecase) SampleDrinks(ctx context.Context, n int) ([]*domain.Drink, error) {
	if n <= 0 {
		return nil, domain.ErrInvalidSampleSize
	}
	docs, err := uc.store.Sample(ctx, domain.DrinksCollection, n)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Drink, 0, len(docs))
	for _, doc := range docs {
		d, err := codec.DrinkFromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func parseIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, len(ids))
	for i, id := range ids {
		oid, err := domain.ParseID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, id)
		}
		out[i] = oid
	}
	return out, nil
}
