// Package models holds the domain types shared by the store, handler and
// report packages.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE — one set of structs, two encodings
// ────────────────────────────────────────────────────────────────────
// Every persisted type carries both `json` tags (the HTTP wire format the
// browser client expects, camelCase) and `bson` tags (the MongoDB document
// layout). Fields that are only filled in on read (the expanded reporter,
// the participant count) are tagged `bson:"-"` so they never get written
// back to the document store.
package models

import "time"

// UserRole defines the type of user account.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleUser   UserRole = "user"
	RoleVendor UserRole = "vendor"
)

// ReportCredit is the green score credited for every reported item.
const ReportCredit = 10

// User is a campus account. Students, staff, admins and recycling vendors
// share one table; Role tells them apart.
type User struct {
	ID                string    `json:"id" bson:"_id"`
	Username          string    `json:"username" bson:"username"`
	Email             string    `json:"email" bson:"email"`
	PasswordHash      string    `json:"-" bson:"passwordHash"`
	Role              UserRole  `json:"role" bson:"role"`
	Department        string    `json:"department" bson:"department"`
	GreenScore        int       `json:"greenScore" bson:"greenScore"`
	TotalContribution float64   `json:"totalContribution" bson:"totalContribution"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Summary returns the public identity fields used when a user is embedded
// in another resource.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Department: u.Department,
		GreenScore: u.GreenScore,
	}
}

// UserSummary is the expanded form of a user reference.
type UserSummary struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	GreenScore int    `json:"greenScore"`
}

// LeaderboardEntry is one row of a leaderboard.
type LeaderboardEntry struct {
	ID                string  `json:"id"`
	Username          string  `json:"username"`
	Department        string  `json:"department"`
	GreenScore        int     `json:"greenScore"`
	TotalContribution float64 `json:"totalContribution"`
}
