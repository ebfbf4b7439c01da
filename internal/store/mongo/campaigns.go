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

// campaignDoc is the stored form of a campaign.
type campaignDoc struct {
	models.Campaign `bson:",inline"`
	AwardPending    bool `bson:"awardPending,omitempty"`
}

// maxAttempts bounds the compare-and-set retry loops below.
const maxAttempts = 3

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (s *Store) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	c.SyncParticipantCount()
	if _, err := s.campaigns.InsertOne(ctx, campaignDoc{Campaign: *c}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create campaign: %w", store.ErrDuplicate)
		}
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (s *Store) ListCampaigns(ctx context.Context, f store.CampaignFilter) ([]models.Campaign, error) {
	q := bson.M{}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	cur, err := s.campaigns.Find(ctx, q,
		options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	list := []models.Campaign{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode campaigns: %w", err)
	}
	for i := range list {
		list[i].SyncParticipantCount()
	}
	return list, nil
}

func (s *Store) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	var c models.Campaign
	if err := s.campaigns.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, notFound(err, "campaign "+id)
	}
	c.SyncParticipantCount()
	return &c, nil
}

func (s *Store) updateCampaign(ctx context.Context, filter, update bson.M) (*models.Campaign, error) {
	var c models.Campaign
	if err := s.campaigns.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&c); err != nil {
		return nil, err
	}
	c.SyncParticipantCount()
	return &c, nil
}

// JoinCampaign is a single conditional update. When it matches nothing the
// campaign is re-read to tell the caller which precondition failed.
func (s *Store) JoinCampaign(ctx context.Context, id, userID string, at time.Time) (*models.Campaign, error) {
	filter := bson.M{
		"_id":               id,
		"status":            models.CampaignActive,
		"participants.user": bson.M{"$ne": userID},
		"$or": bson.A{
			bson.M{"maxParticipants": bson.M{"$exists": false}},
			bson.M{"maxParticipants": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{bson.M{"$size": "$participants"}, "$maxParticipants"}}},
		},
	}
	update := bson.M{
		"$push": bson.M{"participants": models.Participant{User: userID, JoinedAt: at.UTC()}},
		"$set":  bson.M{"updatedAt": at.UTC()},
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		c, err := s.updateCampaign(ctx, filter, update)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("join campaign: %w", err)
		}
		current, err := s.GetCampaign(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := current.CheckJoin(userID); err != nil {
			return nil, err
		}
		// Someone left between the update and the re-read; try again.
	}
	return nil, &models.StateError{Kind: models.ErrCampaignFull, Msg: "campaign is full"}
}

func (s *Store) LeaveCampaign(ctx context.Context, id, userID string, at time.Time) (*models.Campaign, error) {
	c, err := s.updateCampaign(ctx,
		bson.M{"_id": id, "participants.user": userID},
		bson.M{
			"$pull": bson.M{"participants": bson.M{"user": userID}},
			"$set":  bson.M{"updatedAt": at.UTC()},
		})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return s.GetCampaign(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("leave campaign: %w", err)
	}
	return c, nil
}

// SetCampaignStatus checks the transition against the stored status and
// writes with that status in the filter.
func (s *Store) SetCampaignStatus(ctx context.Context, id string, status models.CampaignStatus, at time.Time) (*models.Campaign, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		c, err := s.GetCampaign(ctx, id)
		if err != nil {
			return nil, err
		}
		prev := c.Status
		if err := c.SetStatus(status, at.UTC()); err != nil {
			return nil, err
		}
		out, err := s.updateCampaign(ctx,
			bson.M{"_id": id, "status": prev},
			bson.M{"$set": bson.M{"status": status, "updatedAt": at.UTC()}})
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("set campaign status: %w", err)
		}
		return out, nil
	}
	return nil, &models.StateError{Kind: models.ErrInvalidTransition, Msg: "campaign was modified concurrently, retry"}
}

// AwardCampaign flags the campaign awardPending, credits each participant
// under an idempotent marker, then stamps awardedAt.
func (s *Store) AwardCampaign(ctx context.Context, id string, at time.Time) (models.AwardResult, error) {
	c, err := s.GetCampaign(ctx, id)
	if err != nil {
		return models.AwardResult{}, err
	}
	done, err := c.CheckAward()
	if err != nil {
		return models.AwardResult{}, err
	}
	if done {
		return models.AwardResult{Points: c.Rewards.GreenScorePoints, AlreadyAwarded: true, AwardedAt: *c.AwardedAt}, nil
	}

	at = at.UTC()
	flagged, err := s.updateCampaign(ctx,
		bson.M{"_id": id, "status": models.CampaignCompleted, "awardedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"awardPending": true, "updatedAt": at}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		// A concurrent call finished first.
		return s.AwardCampaign(ctx, id, at)
	}
	if err != nil {
		return models.AwardResult{}, fmt.Errorf("flag award: %w", err)
	}
	return s.finishAward(ctx, flagged, at)
}

// finishAward is the replayable tail of an award. Campaign markers stay on
// the user documents: a slower concurrent award may still be crediting,
// and the marker is what stops it.
func (s *Store) finishAward(ctx context.Context, c *models.Campaign, at time.Time) (models.AwardResult, error) {
	res := models.AwardResult{Points: c.Rewards.GreenScorePoints, AwardedAt: at}
	marker := creditMarker("campaign", c.ID)

	for _, p := range c.Participants {
		applied, err := s.credit(ctx, p.User, marker, c.Rewards.GreenScorePoints, 0, at)
		if err != nil {
			return res, err
		}
		if applied {
			res.Awarded++
		}
	}

	_, err := s.campaigns.UpdateOne(ctx,
		bson.M{"_id": c.ID, "awardedAt": bson.M{"$exists": false}},
		bson.M{
			"$set":   bson.M{"awardedAt": at, "updatedAt": at},
			"$unset": bson.M{"awardPending": ""},
		})
	if err != nil {
		return res, fmt.Errorf("mark campaign awarded: %w", err)
	}
	return res, nil
}
