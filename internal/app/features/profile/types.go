package profile

import (
	"strings"

	"github.com/dalemusser/standupconnect/internal/app/system/htmlsanitize"
	"github.com/dalemusser/standupconnect/internal/app/system/normalize"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

type socialLinksPatch struct {
	Instagram *string `json:"instagram"`
	Twitter   *string `json:"twitter"`
	YouTube   *string `json:"youtube"`
	TikTok    *string `json:"tiktok"`
	Website   *string `json:"website" validate:"omitempty,httpurl" label:"Website"`
}

type comedianPatch struct {
	Bio         *string           `json:"bio" validate:"omitempty,max=2000" label:"Bio"`
	Experience  *int              `json:"experience" validate:"omitempty,gte=0" label:"Experience"`
	Speciality  *string           `json:"speciality" validate:"omitempty,max=200" label:"Speciality"`
	SocialLinks *socialLinksPatch `json:"socialLinks" label:"Social links"`
}

type addressPatch struct {
	City       *string  `json:"city"`
	PostalCode *string  `json:"postalCode"`
	Address    *string  `json:"address"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,latitude" label:"Latitude"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,longitude" label:"Longitude"`
}

type organizerPatch struct {
	CompanyName    *string        `json:"companyName" validate:"omitempty,max=200" label:"Company name"`
	Location       *addressPatch  `json:"location" label:"Location"`
	Description    *string        `json:"description" validate:"omitempty,max=2000" label:"Description"`
	Website        *string        `json:"website" validate:"omitempty,httpurl" label:"Website"`
	VenueTypes     []string       `json:"venueTypes"`
	AverageBudget  *models.Budget `json:"averageBudget"`
	EventFrequency *string        `json:"eventFrequency" validate:"omitempty,oneof=weekly monthly occasional" label:"Event frequency"`
	Phone          *string        `json:"phone"`
}

// updateInput is the body of PUT /api/profile/{userId}. Only the fields
// present are written; sub-documents are merged field by field.
type updateInput struct {
	FirstName        *string         `json:"firstName" validate:"omitempty,min=2,max=100" label:"First name"`
	LastName         *string         `json:"lastName" validate:"omitempty,min=2,max=100" label:"Last name"`
	Email            *string         `json:"email" validate:"omitempty,email" label:"Email"`
	Phone            *string         `json:"phone" validate:"omitempty,max=40" label:"Phone"`
	City             *string         `json:"city" validate:"omitempty,max=100" label:"City"`
	Address          *string         `json:"address" validate:"omitempty,max=300" label:"Address"`
	Profile          *comedianPatch  `json:"profile" label:"Profile"`
	OrganizerProfile *organizerPatch `json:"organizerProfile" label:"Organizer profile"`
}

func (in *updateInput) normalize() {
	trim := func(p *string, f func(string) string) {
		if p != nil {
			*p = f(*p)
		}
	}
	trim(in.FirstName, normalize.Name)
	trim(in.LastName, normalize.Name)
	trim(in.Email, normalize.Email)
	if in.OrganizerProfile != nil {
		trim(in.OrganizerProfile.EventFrequency, func(s string) string { return strings.ToLower(strings.TrimSpace(s)) })
	}
}

type setter bson.M

func (s setter) str(path string, v *string, clean func(string) string) {
	if v != nil {
		s[path] = clean(*v)
	}
}

// set builds the $set document for role. Comedian profile fields apply to
// comedians and organizer profile fields to organizers; the other is ignored.
func (in updateInput) set(role string) bson.M {
	s := setter{}
	s.str("first_name", in.FirstName, strings.TrimSpace)
	s.str("last_name", in.LastName, strings.TrimSpace)
	s.str("email", in.Email, strings.TrimSpace)
	s.str("phone", in.Phone, strings.TrimSpace)
	s.str("city", in.City, strings.TrimSpace)
	s.str("address", in.Address, strings.TrimSpace)

	if p := in.Profile; p != nil && role == models.RoleComedian {
		s.str("profile.bio", p.Bio, htmlsanitize.StripTags)
		s.str("profile.speciality", p.Speciality, htmlsanitize.StripTags)
		if p.Experience != nil {
			s["profile.experience"] = *p.Experience
		}
		if l := p.SocialLinks; l != nil {
			s.str("profile.social_links.instagram", l.Instagram, strings.TrimSpace)
			s.str("profile.social_links.twitter", l.Twitter, strings.TrimSpace)
			s.str("profile.social_links.youtube", l.YouTube, strings.TrimSpace)
			s.str("profile.social_links.tiktok", l.TikTok, strings.TrimSpace)
			s.str("profile.social_links.website", l.Website, strings.TrimSpace)
		}
	}

	if o := in.OrganizerProfile; o != nil && role == models.RoleOrganizer {
		s.str("organizer_profile.company_name", o.CompanyName, htmlsanitize.StripTags)
		s.str("organizer_profile.description", o.Description, htmlsanitize.StripTags)
		s.str("organizer_profile.website", o.Website, strings.TrimSpace)
		s.str("organizer_profile.event_frequency", o.EventFrequency, strings.TrimSpace)
		s.str("organizer_profile.phone", o.Phone, strings.TrimSpace)
		if o.VenueTypes != nil {
			s["organizer_profile.venue_types"] = o.VenueTypes
		}
		if o.AverageBudget != nil {
			s["organizer_profile.average_budget"] = *o.AverageBudget
		}
		if l := o.Location; l != nil {
			s.str("organizer_profile.location.city", l.City, strings.TrimSpace)
			s.str("organizer_profile.location.postal_code", l.PostalCode, strings.TrimSpace)
			s.str("organizer_profile.location.address", l.Address, strings.TrimSpace)
			if l.Latitude != nil {
				s["organizer_profile.location.latitude"] = *l.Latitude
			}
			if l.Longitude != nil {
				s["organizer_profile.location.longitude"] = *l.Longitude
			}
		}
	}
	return bson.M(s)
}

// passwordInput is the body of POST /api/profile/password.
type passwordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required" label:"Current password"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72" label:"New password"`
}
