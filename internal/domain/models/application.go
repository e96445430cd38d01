// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application statuses.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// ApplicationStatuses lists every valid application status.
var ApplicationStatuses = []string{StatusPending, StatusAccepted, StatusRejected}

// Application is the join between one Event and one comedian.
// Exactly one document per (event_id, comedian_id).
type Application struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID    primitive.ObjectID `bson:"event_id" json:"eventId"`
	ComedianID primitive.ObjectID `bson:"comedian_id" json:"comedianId"`
	Status     string             `bson:"status" json:"status"` // PENDING | ACCEPTED | REJECTED

	PerformanceDetails *PerformanceDetails `bson:"performance_details,omitempty" json:"performanceDetails,omitempty"`
	Message            string              `bson:"message,omitempty" json:"message,omitempty"`
	OrganizerMessage   string              `bson:"organizer_message,omitempty" json:"organizerMessage,omitempty"`
	Reminders          ReminderFlags       `bson:"reminders" json:"reminders"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// PerformanceDetails describe the set a comedian proposes.
type PerformanceDetails struct {
	Duration    int    `bson:"duration" json:"duration"`
	Description string `bson:"description" json:"description"`
	VideoLink   string `bson:"video_link,omitempty" json:"videoLink,omitempty"`
}

// ReminderFlags record which reminder emails were already sent.
type ReminderFlags struct {
	J3Sent bool `bson:"j3_sent" json:"j3Sent"`
	J1Sent bool `bson:"j1_sent" json:"j1Sent"`
	H2Sent bool `bson:"h2_sent" json:"h2Sent"`
}

// ValidStatus reports whether s is a known application status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}
