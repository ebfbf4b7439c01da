package models

import (
	"fmt"
	"time"
)

// CampaignType classifies a campaign.
type CampaignType string

const (
	CampaignEducation       CampaignType = "education"
	CampaignCollectionDrive CampaignType = "collection_drive"
	CampaignChallenge       CampaignType = "challenge"
	CampaignWorkshop        CampaignType = "workshop"
)

// CampaignStatus is set by admins; it is not derived from the dates.
type CampaignStatus string

const (
	CampaignUpcoming  CampaignStatus = "upcoming"
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignUpcoming:  {CampaignActive, CampaignCancelled},
	CampaignActive:    {CampaignCompleted, CampaignCancelled},
	CampaignCompleted: {},
	CampaignCancelled: {},
}

// Valid reports whether s is a known status.
func (s CampaignStatus) Valid() bool {
	_, ok := campaignTransitions[s]
	return ok
}

// CanTransitionTo reports whether a campaign in state s may move to next.
func (s CampaignStatus) CanTransitionTo(next CampaignStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, allowed := range campaignTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DefaultTargetAudience is used when a campaign is created without one.
var DefaultTargetAudience = []string{"students", "faculty", "staff"}

// Rewards are credited to every participant once the campaign completes.
type Rewards struct {
	GreenScorePoints int    `json:"greenScorePoints" bson:"greenScorePoints" validate:"gte=0"`
	Certificates     bool   `json:"certificates" bson:"certificates"`
	Prizes           string `json:"prizes,omitempty" bson:"prizes,omitempty"`
}

// Participant is one entry in a campaign roster.
type Participant struct {
	User         string    `json:"user" bson:"user"`
	JoinedAt     time.Time `json:"joinedAt" bson:"joinedAt"`
	Contribution float64   `json:"contribution" bson:"contribution"`

	// Populated on read
	Profile *UserSummary `json:"profile,omitempty" bson:"-"`
}

// Campaign is an awareness or collection event users can join.
type Campaign struct {
	ID              string         `json:"id" bson:"_id"`
	Title           string         `json:"title" bson:"title"`
	Description     string         `json:"description" bson:"description"`
	Type            CampaignType   `json:"type" bson:"type"`
	StartDate       time.Time      `json:"startDate" bson:"startDate"`
	EndDate         time.Time      `json:"endDate" bson:"endDate"`
	TargetAudience  []string       `json:"targetAudience" bson:"targetAudience"`
	MaxParticipants *int           `json:"maxParticipants,omitempty" bson:"maxParticipants,omitempty"`
	Rewards         Rewards        `json:"rewards" bson:"rewards"`
	Status          CampaignStatus `json:"status" bson:"status"`
	CreatedBy       string         `json:"createdBy" bson:"createdBy"`
	Participants    []Participant  `json:"participants" bson:"participants"`
	AwardedAt       *time.Time     `json:"awardedAt,omitempty" bson:"awardedAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt" bson:"updatedAt"`

	// CurrentParticipants is always len(Participants); it is never stored.
	CurrentParticipants int          `json:"currentParticipants" bson:"-"`
	Creator             *UserSummary `json:"creator,omitempty" bson:"-"`
}

// SyncParticipantCount recomputes CurrentParticipants from the roster.
func (c *Campaign) SyncParticipantCount() {
	if c.Participants == nil {
		c.Participants = []Participant{}
	}
	c.CurrentParticipants = len(c.Participants)
}

// IsParticipant reports whether userID is on the roster.
func (c *Campaign) IsParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.User == userID {
			return true
		}
	}
	return false
}

// CheckJoin runs the join preconditions in order: campaign active, user not
// yet on the roster, roster below capacity.
func (c *Campaign) CheckJoin(userID string) error {
	if c.Status != CampaignActive {
		return &StateError{Kind: ErrInvalidState, Msg: "campaign is not active"}
	}
	if c.IsParticipant(userID) {
		return &StateError{Kind: ErrAlreadyParticipating, Msg: "already participating in this campaign"}
	}
	if c.MaxParticipants != nil && len(c.Participants) >= *c.MaxParticipants {
		return &StateError{Kind: ErrCampaignFull, Msg: "campaign is full"}
	}
	return nil
}

// Join appends userID to the roster after CheckJoin passes.
func (c *Campaign) Join(userID string, at time.Time) error {
	if err := c.CheckJoin(userID); err != nil {
		return err
	}
	c.Participants = append(c.Participants, Participant{User: userID, JoinedAt: at})
	c.UpdatedAt = at
	c.SyncParticipantCount()
	return nil
}

// Leave removes userID from the roster. It reports whether anything changed.
func (c *Campaign) Leave(userID string, at time.Time) bool {
	kept := c.Participants[:0]
	for _, p := range c.Participants {
		if p.User != userID {
			kept = append(kept, p)
		}
	}
	changed := len(kept) != len(c.Participants)
	c.Participants = kept
	if changed {
		c.UpdatedAt = at
	}
	c.SyncParticipantCount()
	return changed
}

// SetStatus moves the campaign to next if the transition table allows it.
func (c *Campaign) SetStatus(next CampaignStatus, at time.Time) error {
	if !c.Status.CanTransitionTo(next) {
		return &StateError{
			Kind: ErrInvalidTransition,
			Msg:  fmt.Sprintf("cannot change campaign status from %s to %s", c.Status, next),
		}
	}
	c.Status = next
	c.UpdatedAt = at
	return nil
}

// CheckAward reports whether participants may be credited now. A campaign
// that was already awarded returns done=true and a nil error.
func (c *Campaign) CheckAward() (done bool, err error) {
	if c.Status != CampaignCompleted {
		return false, &StateError{Kind: ErrInvalidState, Msg: "campaign must be completed to award participants"}
	}
	return c.AwardedAt != nil, nil
}

// AwardResult is returned by an award call.
type AwardResult struct {
	Awarded        int       `json:"awarded"`
	Points         int       `json:"points"`
	AlreadyAwarded bool      `json:"alreadyAwarded"`
	AwardedAt      time.Time `json:"awardedAt"`
}
