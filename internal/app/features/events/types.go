package events

import (
	"strings"

	"github.com/dalemusser/standupconnect/internal/app/system/htmlsanitize"
	"github.com/dalemusser/standupconnect/internal/app/system/inputval"
	"github.com/dalemusser/standupconnect/internal/app/system/normalize"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

type locationInput struct {
	Venue   string `json:"venue" validate:"omitempty,max=200" label:"Venue"`
	Address string `json:"address" validate:"required" label:"Address"`
	City    string `json:"city" validate:"required" label:"City"`
	Country string `json:"country" validate:"required" label:"Country"`
}

type requirementsInput struct {
	MinExperience int `json:"minExperience" validate:"gte=0" label:"Minimum experience"`
	MaxPerformers int `json:"maxPerformers" validate:"omitempty,min=1" label:"Maximum performers"`
	Duration      int `json:"duration" validate:"required,min=1" label:"Duration"`
}

// createInput is the body of POST /api/events.
type createInput struct {
	Title        string             `json:"title" validate:"required,min=3,max=200" label:"Title"`
	Description  string             `json:"description" validate:"required,min=10" label:"Description"`
	Date         string             `json:"date" validate:"required,rfc3339" label:"Date"`
	StartTime    string             `json:"startTime" validate:"omitempty,hhmm" label:"Start time"`
	EndTime      string             `json:"endTime" validate:"omitempty,hhmm" label:"End time"`
	Location     locationInput      `json:"location" label:"Location"`
	Requirements *requirementsInput `json:"requirements" label:"Requirements"`
}

func (in createInput) event() models.Event {
	date, _ := inputval.ParseDate(in.Date)
	e := models.Event{
		Title:       htmlsanitize.StripTags(in.Title),
		Description: htmlsanitize.StripTags(in.Description),
		Date:        date.UTC(),
		StartTime:   strings.TrimSpace(in.StartTime),
		EndTime:     strings.TrimSpace(in.EndTime),
		Location: models.EventLocation{
			Venue:   strings.TrimSpace(in.Location.Venue),
			Address: strings.TrimSpace(in.Location.Address),
			City:    strings.TrimSpace(in.Location.City),
			Country: strings.TrimSpace(in.Location.Country),
		},
		Status: models.EventPublished,
	}
	if in.Requirements != nil {
		e.Requirements = models.EventRequirements{
			MinExperience: in.Requirements.MinExperience,
			MaxPerformers: in.Requirements.MaxPerformers,
			Duration:      in.Requirements.Duration,
		}
	}
	return e
}

type locationPatch struct {
	Venue   *string `json:"venue" validate:"omitempty,max=200" label:"Venue"`
	Address *string `json:"address" validate:"omitempty,min=1" label:"Address"`
	City    *string `json:"city" validate:"omitempty,min=1" label:"City"`
	Country *string `json:"country" validate:"omitempty,min=1" label:"Country"`
}

type requirementsPatch struct {
	MinExperience *int `json:"minExperience" validate:"omitempty,gte=0" label:"Minimum experience"`
	MaxPerformers *int `json:"maxPerformers" validate:"omitempty,min=1" label:"Maximum performers"`
	Duration      *int `json:"duration" validate:"omitempty,min=1" label:"Duration"`
}

// updateInput is the body of PUT /api/events/{eventId}. Every field is
// optional; only those present are written.
type updateInput struct {
	Title        *string            `json:"title" validate:"omitempty,min=3,max=200" label:"Title"`
	Description  *string            `json:"description" validate:"omitempty,min=10" label:"Description"`
	Date         *string            `json:"date" validate:"omitempty,rfc3339" label:"Date"`
	StartTime    *string            `json:"startTime" validate:"omitempty,hhmm" label:"Start time"`
	EndTime      *string            `json:"endTime" validate:"omitempty,hhmm" label:"End time"`
	Status       *string            `json:"status" validate:"omitempty,oneof=draft published cancelled completed" label:"Status"`
	Location     *locationPatch     `json:"location" label:"Location"`
	Requirements *requirementsPatch `json:"requirements" label:"Requirements"`
}

func (in *updateInput) normalize() {
	if in.Status != nil {
		s := normalize.EventStatus(*in.Status)
		in.Status = &s
	}
}

// set returns the bson $set document for the fields present.
func (in updateInput) set() bson.M {
	set := bson.M{}
	str := func(path string, v *string, clean func(string) string) {
		if v != nil {
			set[path] = clean(*v)
		}
	}
	num := func(path string, v *int) {
		if v != nil {
			set[path] = *v
		}
	}

	str("title", in.Title, htmlsanitize.StripTags)
	str("description", in.Description, htmlsanitize.StripTags)
	str("start_time", in.StartTime, strings.TrimSpace)
	str("end_time", in.EndTime, strings.TrimSpace)
	str("status", in.Status, strings.TrimSpace)
	if in.Date != nil {
		if d, ok := inputval.ParseDate(*in.Date); ok {
			set["date"] = d.UTC()
		}
	}
	if l := in.Location; l != nil {
		str("location.venue", l.Venue, strings.TrimSpace)
		str("location.address", l.Address, strings.TrimSpace)
		str("location.city", l.City, strings.TrimSpace)
		str("location.country", l.Country, strings.TrimSpace)
	}
	if q := in.Requirements; q != nil {
		num("requirements.min_experience", q.MinExperience)
		num("requirements.max_performers", q.MaxPerformers)
		num("requirements.duration", q.Duration)
	}
	return set
}

// statsResponse is the body of GET /api/events/stats.
type statsResponse struct {
	TotalEvents              int64 `json:"totalEvents"`
	UpcomingIncompleteEvents int64 `json:"upcomingIncompleteEvents"`
	CompletedEvents          int64 `json:"completedEvents"`
	PendingApplications      int64 `json:"pendingApplications"`
	AcceptedApplications     int64 `json:"acceptedApplications"`
	RejectedApplications     int64 `json:"rejectedApplications"`
}

