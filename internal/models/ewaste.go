package models

import (
	"fmt"
	"time"
)

// ItemCategory groups reported devices.
type ItemCategory string

const (
	CategoryComputers     ItemCategory = "computers"
	CategoryMobileDevices ItemCategory = "mobile_devices"
	CategoryLabEquipment  ItemCategory = "lab_equipment"
	CategoryBatteries     ItemCategory = "batteries"
	CategoryAccessories   ItemCategory = "accessories"
	CategoryOther         ItemCategory = "other"
)

// ItemType says how an item can be handled downstream.
type ItemType string

const (
	TypeRecyclable ItemType = "recyclable"
	TypeReusable   ItemType = "reusable"
	TypeHazardous  ItemType = "hazardous"
)

// ItemTypes lists every ItemType in display order.
var ItemTypes = []ItemType{TypeRecyclable, TypeReusable, TypeHazardous}

// ItemStatus is the lifecycle state of a reported item.
type ItemStatus string

const (
	ItemReported  ItemStatus = "reported"
	ItemAssessed  ItemStatus = "assessed"
	ItemScheduled ItemStatus = "scheduled"
	ItemCollected ItemStatus = "collected"
	ItemRecycled  ItemStatus = "recycled"
	ItemDisposed  ItemStatus = "disposed"
)

// ItemStatuses lists every ItemStatus in lifecycle order.
var ItemStatuses = []ItemStatus{
	ItemReported, ItemAssessed, ItemScheduled, ItemCollected, ItemRecycled, ItemDisposed,
}

// itemTransitions is the allowed-moves table. Items only move forward;
// disposal is reachable from every non-terminal state.
var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemReported:  {ItemAssessed, ItemScheduled, ItemDisposed},
	ItemAssessed:  {ItemScheduled, ItemCollected, ItemDisposed},
	ItemScheduled: {ItemCollected, ItemDisposed},
	ItemCollected: {ItemRecycled, ItemDisposed},
	ItemRecycled:  {},
	ItemDisposed:  {},
}

// Valid reports whether s is a known status.
func (s ItemStatus) Valid() bool {
	_, ok := itemTransitions[s]
	return ok
}

// CanTransitionTo reports whether an item in state s may move to next.
// Re-applying the current state is allowed so pickup and vendor details can
// be attached without a status change.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, allowed := range itemTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CheckItemTransition returns a *StateError when from → to is not allowed.
func CheckItemTransition(from, to ItemStatus) error {
	if !from.CanTransitionTo(to) {
		return &StateError{
			Kind: ErrInvalidTransition,
			Msg:  fmt.Sprintf("cannot change item status from %s to %s", from, to),
		}
	}
	return nil
}

// Location is where on campus an item is waiting for pickup.
type Location struct {
	Building string `json:"building" bson:"building"`
	Floor    string `json:"floor" bson:"floor"`
	Room     string `json:"room" bson:"room"`
}

// EnvironmentalImpact is filled in by recycling partners, if at all.
type EnvironmentalImpact struct {
	CO2Saved             float64 `json:"co2Saved" bson:"co2Saved"`
	LandfillWasteReduced float64 `json:"landfillWasteReduced" bson:"landfillWasteReduced"`
}

// Item is a reported piece of e-waste.
type Item struct {
	ID                  string               `json:"id" bson:"_id"`
	ItemID              string               `json:"itemId" bson:"itemId"`
	Name                string               `json:"name" bson:"name"`
	Category            ItemCategory         `json:"category" bson:"category"`
	Type                ItemType             `json:"type" bson:"type"`
	Description         string               `json:"description" bson:"description"`
	Department          string               `json:"department" bson:"department"`
	ReportedBy          string               `json:"reportedBy" bson:"reportedBy"`
	Status              ItemStatus           `json:"status" bson:"status"`
	Age                 int                  `json:"age" bson:"age"`
	Weight              float64              `json:"weight" bson:"weight"`
	QRCode              string               `json:"qrCode" bson:"qrCode"`
	Location            Location             `json:"location" bson:"location"`
	ScheduledPickup     *time.Time           `json:"scheduledPickup,omitempty" bson:"scheduledPickup,omitempty"`
	Vendor              string               `json:"vendor,omitempty" bson:"vendor,omitempty"`
	EnvironmentalImpact *EnvironmentalImpact `json:"environmentalImpact,omitempty" bson:"environmentalImpact,omitempty"`
	CreatedAt           time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt" bson:"updatedAt"`

	// Populated on read
	Reporter   *UserSummary `json:"reporter,omitempty" bson:"-"`
	VendorUser *UserSummary `json:"vendorUser,omitempty" bson:"-"`
}

// ItemUpdate is a status patch. Nil/empty fields are left untouched.
type ItemUpdate struct {
	Status          ItemStatus
	ScheduledPickup *time.Time
	Vendor          string
}

// Apply validates the transition and writes u onto it.
func (u ItemUpdate) Apply(it *Item, now time.Time) error {
	if err := CheckItemTransition(it.Status, u.Status); err != nil {
		return err
	}
	it.Status = u.Status
	if u.ScheduledPickup != nil {
		t := u.ScheduledPickup.UTC()
		it.ScheduledPickup = &t
	}
	if u.Vendor != "" {
		it.Vendor = u.Vendor
	}
	it.UpdatedAt = now
	return nil
}

// CodePayload is the JSON encoded into an item's scannable code.
type CodePayload struct {
	ItemID     string       `json:"itemId"`
	Name       string       `json:"name"`
	Category   ItemCategory `json:"category"`
	Type       ItemType     `json:"type"`
	Department string       `json:"department"`
	ReportedBy string       `json:"reportedBy"`
}
