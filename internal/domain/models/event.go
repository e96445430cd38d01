// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event statuses.
const (
	EventDraft     = "draft"
	EventPublished = "published"
	EventCancelled = "cancelled"
	EventCompleted = "completed"
)

// EventStatuses lists every valid event status.
var EventStatuses = []string{EventDraft, EventPublished, EventCancelled, EventCompleted}

// Event is an organizer-owned show that comedians apply to.
// Participants holds comedians whose application is ACCEPTED.
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Date        time.Time          `bson:"date" json:"date"`
	StartTime   string             `bson:"start_time,omitempty" json:"startTime,omitempty"` // HH:MM, local to the venue
	EndTime     string             `bson:"end_time,omitempty" json:"endTime,omitempty"`
	Location    EventLocation      `bson:"location" json:"location"`
	OrganizerID primitive.ObjectID `bson:"organizer_id" json:"organizerId"`
	Status      string             `bson:"status" json:"status"` // draft | published | cancelled | completed

	Requirements EventRequirements `bson:"requirements" json:"requirements"`

	Applications       []primitive.ObjectID `bson:"applications" json:"applications"`
	Participants       []primitive.ObjectID `bson:"participants" json:"participants"`
	WithdrawnComedians []primitive.ObjectID `bson:"withdrawn_comedians" json:"withdrawnComedians"`

	ModifiedByOrganizer bool `bson:"modified_by_organizer" json:"modifiedByOrganizer"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// EventLocation is where the show happens.
type EventLocation struct {
	Venue   string `bson:"venue,omitempty" json:"venue,omitempty"`
	Address string `bson:"address" json:"address"`
	City    string `bson:"city" json:"city"`
	Country string `bson:"country" json:"country"`
}

// EventRequirements constrain who may apply.
type EventRequirements struct {
	MinExperience int `bson:"min_experience" json:"minExperience"`
	MaxPerformers int `bson:"max_performers,omitempty" json:"maxPerformers,omitempty"`
	Duration      int `bson:"duration" json:"duration"` // minutes per set
}

// HasParticipant reports whether the comedian is in the participants list.
func (e Event) HasParticipant(comedianID primitive.ObjectID) bool {
	for _, id := range e.Participants {
		if id == comedianID {
			return true
		}
	}
	return false
}

// HasWithdrawn reports whether the comedian previously withdrew from the event.
func (e Event) HasWithdrawn(comedianID primitive.ObjectID) bool {
	for _, id := range e.WithdrawnComedians {
		if id == comedianID {
			return true
		}
	}
	return false
}
