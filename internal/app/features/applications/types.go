package applications

import (
	"strings"

	"github.com/dalemusser/standupconnect/internal/app/system/htmlsanitize"
	"github.com/dalemusser/standupconnect/internal/app/system/normalize"
	"github.com/dalemusser/standupconnect/internal/domain/models"
)

type detailsInput struct {
	Duration    int    `json:"duration" validate:"min=1" label:"Duration"`
	Description string `json:"description" validate:"min=10" label:"Description"`
	VideoLink   string `json:"videoLink" validate:"omitempty,httpurl" label:"Video link"`
}

// applyInput is the body of POST /api/applications.
type applyInput struct {
	EventID            string        `json:"eventId" validate:"required,objectid" label:"Event"`
	PerformanceDetails *detailsInput `json:"performanceDetails" label:"Performance details"`
	Message            string        `json:"message" validate:"max=2000" label:"Message"`
}

func (in applyInput) details() *models.PerformanceDetails {
	if in.PerformanceDetails == nil {
		return nil
	}
	return &models.PerformanceDetails{
		Duration:    in.PerformanceDetails.Duration,
		Description: htmlsanitize.StripTags(in.PerformanceDetails.Description),
		VideoLink:   strings.TrimSpace(in.PerformanceDetails.VideoLink),
	}
}

// statusInput is the body of PUT /api/applications/{applicationId}/status.
type statusInput struct {
	Status           string  `json:"status" validate:"required,appstatus" label:"Status"`
	OrganizerMessage *string `json:"organizerMessage" validate:"omitempty,max=2000" label:"Organizer message"` // nil keeps, "" clears
}

func (in *statusInput) normalize() {
	in.Status = normalize.Status(in.Status)
	if in.OrganizerMessage != nil {
		msg := htmlsanitize.StripTags(*in.OrganizerMessage)
		in.OrganizerMessage = &msg
	}
}
