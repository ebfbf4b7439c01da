package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// itemDoc is the stored form of an item.
type itemDoc struct {
	models.Item   `bson:",inline"`
	PendingCredit bool `bson:"pendingCredit,omitempty"`
}

// ReportItem inserts the item flagged pendingCredit, credits the reporter,
// then clears the flag. Recover completes the sequence after a crash.
func (s *Store) ReportItem(ctx context.Context, it *models.Item) error {
	if _, err := s.GetUserByID(ctx, it.ReportedBy); err != nil {
		return fmt.Errorf("reporter: %w", err)
	}
	if _, err := s.items.InsertOne(ctx, itemDoc{Item: *it, PendingCredit: true}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("report item: %w", store.ErrDuplicate)
		}
		return fmt.Errorf("report item: %w", err)
	}
	return s.creditReporter(ctx, it)
}

func (s *Store) creditReporter(ctx context.Context, it *models.Item) error {
	marker := creditMarker("item", it.ID)
	if _, err := s.credit(ctx, it.ReportedBy, marker, models.ReportCredit, it.Weight, it.CreatedAt); err != nil {
		return err
	}
	if _, err := s.items.UpdateOne(ctx, bson.M{"_id": it.ID}, bson.M{"$unset": bson.M{"pendingCredit": ""}}); err != nil {
		return fmt.Errorf("clear pending credit: %w", err)
	}
	return s.clearMarkers(ctx, []string{it.ReportedBy}, marker)
}

func itemQuery(f store.ItemFilter) bson.M {
	q := bson.M{}
	if f.Department != "" {
		q["department"] = f.Department
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	created := bson.M{}
	if !f.From.IsZero() {
		created["$gte"] = f.From
	}
	if !f.To.IsZero() {
		created["$lte"] = f.To
	}
	if len(created) > 0 {
		q["createdAt"] = created
	}
	return q
}

func (s *Store) ListItems(ctx context.Context, f store.ItemFilter) ([]models.Item, error) {
	cur, err := s.items.Find(ctx, itemQuery(f),
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items := []models.Item{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}

func (s *Store) findItem(ctx context.Context, filter bson.M, what string) (*models.Item, error) {
	var it models.Item
	if err := s.items.FindOne(ctx, filter).Decode(&it); err != nil {
		return nil, notFound(err, what)
	}
	return &it, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return s.findItem(ctx, bson.M{"_id": id}, "item "+id)
}

func (s *Store) GetItemByCode(ctx context.Context, itemID string) (*models.Item, error) {
	return s.findItem(ctx, bson.M{"itemId": itemID}, "item code "+itemID)
}

// UpdateItemStatus is a compare-and-set on the current status: the update
// only lands if nobody moved the item since it was read.
func (s *Store) UpdateItemStatus(ctx context.Context, id string, u models.ItemUpdate) (*models.Item, error) {
	for attempt := 0; attempt < 3; attempt++ {
		it, err := s.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		prev := it.Status
		if err := u.Apply(it, time.Now().UTC()); err != nil {
			return nil, err
		}
		set := bson.M{"status": it.Status, "updatedAt": it.UpdatedAt}
		if it.ScheduledPickup != nil {
			set["scheduledPickup"] = it.ScheduledPickup
		}
		if it.Vendor != "" {
			set["vendor"] = it.Vendor
		}
		var out models.Item
		err = s.items.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": prev}, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update item status: %w", err)
		}
		return &out, nil
	}
	return nil, &models.StateError{Kind: models.ErrInvalidTransition, Msg: "item was modified concurrently, retry"}
}
