package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", store.ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M, what string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err, what)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id}, "user "+id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email}, "user "+email)
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.findUsers(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id, username, department string) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if username != "" {
		set["username"] = username
	}
	if department != "" {
		set["department"] = department
	}
	var u models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("update profile: %w", store.ErrDuplicate)
		}
		return nil, notFound(err, "user "+id)
	}
	return &u, nil
}

var byScore = bson.D{{Key: "greenScore", Value: -1}, {Key: "username", Value: 1}}

func (s *Store) findUsers(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cur, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.findUsers(ctx, bson.M{}, options.Find().SetSort(byScore))
}

func (s *Store) Leaderboard(ctx context.Context, department string, limit int) ([]models.User, error) {
	filter := bson.M{}
	if department != "" {
		filter["department"] = department
	}
	opts := options.Find().SetSort(byScore)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.findUsers(ctx, filter, opts)
}

func (s *Store) SetGreenScore(ctx context.Context, id string, score int) (*models.User, error) {
	var u models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"greenScore": score, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		return nil, notFound(err, "user "+id)
	}
	return &u, nil
}

// credit adds points (and kg of contribution) to userID unless marker is
// already in the user's credits array. It reports whether the credit was
// applied by this call.
func (s *Store) credit(ctx context.Context, userID, marker string, points int, kg float64, at time.Time) (bool, error) {
	inc := bson.M{"greenScore": points}
	if kg != 0 {
		inc["totalContribution"] = kg
	}
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID, "credits": bson.M{"$ne": marker}},
		bson.M{
			"$inc":  inc,
			"$push": bson.M{"credits": marker},
			"$set":  bson.M{"updatedAt": at},
		})
	if err != nil {
		return false, fmt.Errorf("credit user %s: %w", userID, err)
	}
	return res.ModifiedCount == 1, nil
}

// clearMarkers drops marker from the given users once the intent that
// produced it has been cleared.
func (s *Store) clearMarkers(ctx context.Context, userIDs []string, marker string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := s.users.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		bson.M{"$pull": bson.M{"credits": marker}})
	if err != nil {
		return fmt.Errorf("clear credit markers: %w", err)
	}
	return nil
}
