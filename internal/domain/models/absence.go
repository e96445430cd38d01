// internal/domain/models/absence.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Absence records a comedian's no-show at an event, as marked by its organizer.
// Exactly one document per (event_id, comedian_id).
type Absence struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID     primitive.ObjectID `bson:"event_id" json:"eventId"`
	ComedianID  primitive.ObjectID `bson:"comedian_id" json:"comedianId"`
	OrganizerID primitive.ObjectID `bson:"organizer_id" json:"organizerId"`
	Reason      string             `bson:"reason,omitempty" json:"reason,omitempty"`
	MarkedAt    time.Time          `bson:"marked_at" json:"markedAt"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
