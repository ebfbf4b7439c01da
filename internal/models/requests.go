package models

import (
	"strings"
	"time"
)

// ---- Request / Response DTOs ----
//
// `validate` tags are checked by go-playground/validator in the handlers
// package before anything touches the store. Requests with a Normalize
// method have it called first, so a value made only of whitespace fails
// `required` instead of being stored as "".

type RegisterRequest struct {
	Username   string   `json:"username" validate:"required,min=3,max=50"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=8"`
	Department string   `json:"department" validate:"required"`
	Role       UserRole `json:"role" validate:"omitempty,oneof=admin user vendor"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Department = strings.TrimSpace(r.Department)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type UpdateProfileRequest struct {
	Username   string `json:"username" validate:"omitempty,min=3,max=50"`
	Department string `json:"department"`
}

func (r *UpdateProfileRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Department = strings.TrimSpace(r.Department)
}

type ReportItemRequest struct {
	Name        string       `json:"name" validate:"required"`
	Category    ItemCategory `json:"category" validate:"required,oneof=computers mobile_devices lab_equipment batteries accessories other"`
	Type        ItemType     `json:"type" validate:"required,oneof=recyclable reusable hazardous"`
	Description string       `json:"description" validate:"required"`
	Department  string       `json:"department" validate:"required"`
	Age         *int         `json:"age" validate:"required,gte=0"`
	Weight      float64      `json:"weight" validate:"required,gt=0"`
	Location    Location     `json:"location"`
}

func (r *ReportItemRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Department = strings.TrimSpace(r.Department)
}

type ReportItemResponse struct {
	Message string `json:"message"`
	Ewaste  Item   `json:"ewaste"`
	QRCode  string `json:"qrCode"`
}

type UpdateItemStatusRequest struct {
	Status          ItemStatus `json:"status" validate:"required,oneof=reported assessed scheduled collected recycled disposed"`
	ScheduledPickup *time.Time `json:"scheduledPickup"`
	Vendor          string     `json:"vendor"`
}

func (r *UpdateItemStatusRequest) Normalize() {
	r.Vendor = strings.TrimSpace(r.Vendor)
}

type CreateCampaignRequest struct {
	Title           string       `json:"title" validate:"required"`
	Description     string       `json:"description" validate:"required"`
	Type            CampaignType `json:"type" validate:"required,oneof=education collection_drive challenge workshop"`
	StartDate       time.Time    `json:"startDate" validate:"required"`
	EndDate         time.Time    `json:"endDate" validate:"required,gtfield=StartDate"`
	TargetAudience  []string     `json:"targetAudience"`
	MaxParticipants *int         `json:"maxParticipants" validate:"omitempty,gt=0"`
	Rewards         Rewards      `json:"rewards"`
}

func (r *CreateCampaignRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
}

type SetCampaignStatusRequest struct {
	Status CampaignStatus `json:"status" validate:"required,oneof=upcoming active completed cancelled"`
}

type CampaignActionResponse struct {
	Message  string    `json:"message"`
	Campaign *Campaign `json:"campaign"`
}

type AwardResponse struct {
	Message string `json:"message"`
	AwardResult
}

type SetGreenScoreRequest struct {
	GreenScore *int `json:"greenScore" validate:"required,gte=0"`
}

type ItemActionResponse struct {
	Message string `json:"message"`
	Ewaste  *Item  `json:"ewaste"`
}

type UserActionResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}
