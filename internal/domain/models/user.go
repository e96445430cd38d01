// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles stored on User.Role.
const (
	RoleComedian   = "COMEDIAN"
	RoleOrganizer  = "ORGANIZER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// Roles lists every valid role.
var Roles = []string{RoleComedian, RoleOrganizer, RoleAdmin, RoleSuperAdmin}

// EventFrequencies lists the values accepted for OrganizerProfile.EventFrequency.
var EventFrequencies = []string{"weekly", "monthly", "occasional"}

// User represents comedians, organizers, and administrators.
//
// NOTE:
//   - Stats are denormalized counters. Only the lifecycle package mutates them;
//     reconcile and absences recompute them from ground truth.
//   - PasswordHash is never serialized to JSON.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"` // folded for case-insensitive lookup
	PasswordHash string             `bson:"password_hash" json:"-"`
	FirstName    string             `bson:"first_name" json:"firstName"`
	LastName     string             `bson:"last_name" json:"lastName"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	Role         string             `bson:"role" json:"role"` // COMEDIAN | ORGANIZER | ADMIN | SUPER_ADMIN

	Profile          *ComedianProfile  `bson:"profile,omitempty" json:"profile,omitempty"`
	OrganizerProfile *OrganizerProfile `bson:"organizer_profile,omitempty" json:"organizerProfile,omitempty"`
	Stats            UserStats         `bson:"stats" json:"stats"`

	OnboardingCompleted bool       `bson:"onboarding_completed" json:"onboardingCompleted"`
	EmailVerified       bool       `bson:"email_verified" json:"emailVerified"`
	LastLoginAt         *time.Time `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserStats holds the per-user aggregate counters.
type UserStats struct {
	TotalEvents          int                  `bson:"total_events" json:"totalEvents"`
	ApplicationsSent     int                  `bson:"applications_sent" json:"applicationsSent"`
	ApplicationsAccepted int                  `bson:"applications_accepted" json:"applicationsAccepted"`
	ApplicationsRejected int                  `bson:"applications_rejected" json:"applicationsRejected"`
	ApplicationsPending  int                  `bson:"applications_pending" json:"applicationsPending"`
	Absences             int                  `bson:"absences" json:"absences"`
	ProcessedEvents      []primitive.ObjectID `bson:"processed_events" json:"processedEvents"` // counted in TotalEvents
	AbsentEvents         []primitive.ObjectID `bson:"absent_events,omitempty" json:"absentEvents,omitempty"`
}

// ComedianProfile is the role-specific profile for COMEDIAN users.
type ComedianProfile struct {
	Bio          string        `bson:"bio,omitempty" json:"bio,omitempty"`
	Experience   int           `bson:"experience" json:"experience"` // years on stage
	Speciality   string        `bson:"speciality,omitempty" json:"speciality,omitempty"`
	SocialLinks  SocialLinks   `bson:"social_links" json:"socialLinks"`
	Performances []Performance `bson:"performances,omitempty" json:"performances,omitempty"`
}

// SocialLinks are optional public profile URLs.
type SocialLinks struct {
	Instagram string `bson:"instagram,omitempty" json:"instagram,omitempty"`
	Twitter   string `bson:"twitter,omitempty" json:"twitter,omitempty"`
	YouTube   string `bson:"youtube,omitempty" json:"youtube,omitempty"`
	TikTok    string `bson:"tiktok,omitempty" json:"tiktok,omitempty"`
	Website   string `bson:"website,omitempty" json:"website,omitempty"`
}

// Performance is a past show listed on a comedian profile.
type Performance struct {
	Date        time.Time `bson:"date" json:"date"`
	Venue       string    `bson:"venue" json:"venue"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
}

// OrganizerProfile is the role-specific profile for ORGANIZER users.
type OrganizerProfile struct {
	CompanyName    string           `bson:"company_name,omitempty" json:"companyName,omitempty"`
	Location       OrganizerAddress `bson:"location" json:"location"`
	Description    string           `bson:"description,omitempty" json:"description,omitempty"`
	Website        string           `bson:"website,omitempty" json:"website,omitempty"`
	VenueTypes     []string         `bson:"venue_types,omitempty" json:"venueTypes,omitempty"`
	AverageBudget  *Budget          `bson:"average_budget,omitempty" json:"averageBudget,omitempty"`
	EventFrequency string           `bson:"event_frequency,omitempty" json:"eventFrequency,omitempty"` // weekly | monthly | occasional
	Phone          string           `bson:"phone,omitempty" json:"phone,omitempty"`
}

// OrganizerAddress locates an organizer's venue.
type OrganizerAddress struct {
	City       string   `bson:"city,omitempty" json:"city,omitempty"`
	PostalCode string   `bson:"postal_code,omitempty" json:"postalCode,omitempty"`
	Address    string   `bson:"address,omitempty" json:"address,omitempty"`
	Latitude   *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude  *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// Budget is a min/max range in the organizer's currency.
type Budget struct {
	Min float64 `bson:"min" json:"min"`
	Max float64 `bson:"max" json:"max"`
}

// UserSummary is the populated form of a user reference in API responses.
type UserSummary struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Email     string             `bson:"email" json:"email"`
	FirstName string             `bson:"first_name" json:"firstName"`
	LastName  string             `bson:"last_name" json:"lastName"`
	Role      string             `bson:"role" json:"role"`
	Profile   *ComedianProfile   `bson:"profile,omitempty" json:"profile,omitempty"`
}

// StatsDelta is a signed change to UserStats counters. Applying a delta
// never drives a counter below zero.
type StatsDelta struct {
	TotalEvents          int
	ApplicationsSent     int
	ApplicationsAccepted int
	ApplicationsRejected int
	ApplicationsPending  int
	Absences             int
}

// IsZero reports whether the delta changes nothing.
func (d StatsDelta) IsZero() bool { return d == StatsDelta{} }

// Add returns the sum of two deltas.
func (d StatsDelta) Add(o StatsDelta) StatsDelta {
	return StatsDelta{
		TotalEvents:          d.TotalEvents + o.TotalEvents,
		ApplicationsSent:     d.ApplicationsSent + o.ApplicationsSent,
		ApplicationsAccepted: d.ApplicationsAccepted + o.ApplicationsAccepted,
		ApplicationsRejected: d.ApplicationsRejected + o.ApplicationsRejected,
		ApplicationsPending:  d.ApplicationsPending + o.ApplicationsPending,
		Absences:             d.Absences + o.Absences,
	}
}

// Fields maps each non-zero counter to its bson path under stats.
func (d StatsDelta) Fields() map[string]int {
	out := map[string]int{}
	set := func(k string, v int) {
		if v != 0 {
			out["stats."+k] = v
		}
	}
	set("total_events", d.TotalEvents)
	set("applications_sent", d.ApplicationsSent)
	set("applications_accepted", d.ApplicationsAccepted)
	set("applications_rejected", d.ApplicationsRejected)
	set("applications_pending", d.ApplicationsPending)
	set("absences", d.Absences)
	return out
}
