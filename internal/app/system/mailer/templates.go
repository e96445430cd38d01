// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dalemusser/standupconnect/internal/domain/models"
)

// Message kinds, used as the metrics label for each notification.
const (
	KindApplicationReceived = "application_received"
	KindNewEvent            = "new_event"
	KindStatus              = "application_status"
	KindEventUpdated        = "event_updated"
	KindReminder            = "reminder"
	KindAdmin               = "admin"
)

const siteName = "Standup Connect"

// EventInfo is the event summary shown in every notification.
type EventInfo struct {
	Title     string
	Date      time.Time
	StartTime string // HH:MM, optional
	Venue     string
	Address   string
	City      string
}

// EventSummary converts a stored event to its email summary.
func EventSummary(e models.Event) EventInfo {
	return EventInfo{
		Title:     e.Title,
		Date:      e.Date,
		StartTime: e.StartTime,
		Venue:     e.Location.Venue,
		Address:   e.Location.Address,
		City:      e.Location.City,
	}
}

func (e EventInfo) when() string {
	s := e.Date.Format("Monday 2 January 2006")
	if e.StartTime != "" {
		s += " at " + e.StartTime
	}
	return s
}

func (e EventInfo) where() string {
	parts := []string{}
	for _, p := range []string{e.Venue, e.Address, e.City} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type link struct {
	Label string
	URL   string
}

// page is the data for the shared HTML layout.
type page struct {
	SiteName  string
	Heading   string
	Greeting  string
	Lines     []string
	Quote     string
	QuoteHead string
	Event     EventInfo
	When      string
	Where     string
	Links     []link
	Footer    string
}

func (p page) text() string {
	var buf bytes.Buffer
	if p.Greeting != "" {
		buf.WriteString(p.Greeting + "\n\n")
	}
	for _, l := range p.Lines {
		buf.WriteString(l + "\n")
	}
	if p.Quote != "" {
		fmt.Fprintf(&buf, "\n%s\n  %s\n", p.QuoteHead, p.Quote)
	}
	fmt.Fprintf(&buf, "\nEvent: %s\nWhen:  %s\n", p.Event.Title, p.When)
	if p.Where != "" {
		fmt.Fprintf(&buf, "Where: %s\n", p.Where)
	}
	for _, l := range p.Links {
		fmt.Fprintf(&buf, "\n%s:\n%s\n", l.Label, l.URL)
	}
	if p.Footer != "" {
		buf.WriteString("\n" + p.Footer + "\n")
	}
	buf.WriteString("\n-- " + p.SiteName + "\n")
	return buf.String()
}

var layout = template.Must(template.New("layout").Parse(layoutHTML))

func (p page) html() string {
	var buf bytes.Buffer
	_ = layout.Execute(&buf, p)
	return buf.String()
}

func (p page) email(to, subject string) Email {
	p.SiteName = siteName
	p.When = p.Event.when()
	p.Where = p.Event.where()
	return Email{To: to, Subject: subject, TextBody: p.text(), HTMLBody: p.html()}
}

// ApplicationReceivedData feeds the organizer's new-application email.
type ApplicationReceivedData struct {
	OrganizerName string
	ComedianName  string
	Message       string
	Event         EventInfo
	ManageURL     string
}

func BuildApplicationReceivedEmail(to string, d ApplicationReceivedData) Email {
	p := page{
		Heading:  "New application",
		Greeting: "Hello " + d.OrganizerName + ",",
		Lines:    []string{d.ComedianName + " applied to perform at your event."},
		Event:    d.Event,
		Links:    []link{{"Review applications", d.ManageURL}},
	}
	if d.Message != "" {
		p.QuoteHead, p.Quote = "Their message:", d.Message
	}
	return p.email(to, fmt.Sprintf("New application from %s for %q", d.ComedianName, d.Event.Title))
}

// NewEventData feeds the email sent to every comedian when an event is published.
type NewEventData struct {
	ComedianName  string
	OrganizerName string
	Event         EventInfo
	EventURL      string
}

func BuildNewEventEmail(to string, d NewEventData) Email {
	p := page{
		Heading:  "New event",
		Greeting: "Hello " + d.ComedianName + ",",
		Lines:    []string{d.OrganizerName + " just published a new event. Spots are open for applications."},
		Event:    d.Event,
		Links:    []link{{"See the event", d.EventURL}},
	}
	return p.email(to, fmt.Sprintf("New event from %s: %s", d.OrganizerName, d.Event.Title))
}

// StatusData feeds the accepted/rejected email.
type StatusData struct {
	ComedianName     string
	OrganizerName    string
	Accepted         bool
	OrganizerMessage string
	Event            EventInfo
	ApplicationsURL  string
}

func BuildStatusEmail(to string, d StatusData) Email {
	verdict, subject := "rejected", fmt.Sprintf("Your application for %q was declined", d.Event.Title)
	if d.Accepted {
		verdict, subject = "accepted", fmt.Sprintf("Your application for %q was accepted!", d.Event.Title)
	}
	msg := d.OrganizerMessage
	if msg == "" {
		msg = "(no message)"
	}
	p := page{
		Heading:   "Application " + verdict,
		Greeting:  "Hello " + d.ComedianName + ",",
		Lines:     []string{"Your application has been " + verdict + " by " + d.OrganizerName + "."},
		QuoteHead: "Message from the organizer:",
		Quote:     msg,
		Event:     d.Event,
		Links:     []link{{"View my applications", d.ApplicationsURL}},
	}
	e := p.email(to, subject)
	e.FromName = d.OrganizerName
	return e
}

// EventUpdatedData feeds the email sent to applicants after an organizer edit.
type EventUpdatedData struct {
	ComedianName   string
	OrganizerName  string
	OrganizerEmail string
	Event          EventInfo
	KeepURL        string
	WithdrawURL    string
}

func BuildEventUpdatedEmail(to string, d EventUpdatedData) Email {
	p := page{
		Heading:  "Event updated",
		Greeting: "Hello " + d.ComedianName + ",",
		Lines: []string{
			"An event you applied to was changed by " + d.OrganizerName + ".",
			"Please let us know whether you are still in.",
		},
		Event: d.Event,
		Links: []link{
			{"Keep my application", d.KeepURL},
			{"Withdraw my application", d.WithdrawURL},
		},
		Footer: "These links expire after a few days.",
	}
	e := p.email(to, fmt.Sprintf("Event updated: %q", d.Event.Title))
	e.FromName = d.OrganizerName
	e.ReplyTo = d.OrganizerEmail
	return e
}

// Reminder windows.
const (
	ReminderJ3 = "J-3"
	ReminderJ1 = "J-1"
	ReminderH2 = "-2H"
)

// ReminderData feeds the pre-show reminders.
type ReminderData struct {
	ComedianName    string
	Window          string // ReminderJ3, ReminderJ1 or ReminderH2
	Event           EventInfo
	ApplicationsURL string
}

func reminderSubject(window, title string) string {
	switch window {
	case ReminderJ3:
		return fmt.Sprintf("Reminder: %q is in 3 days", title)
	case ReminderJ1:
		return fmt.Sprintf("Reminder: %q is tomorrow", title)
	default:
		return fmt.Sprintf("Reminder: %q starts in 2 hours", title)
	}
}

func BuildReminderEmail(to string, d ReminderData) Email {
	subject := reminderSubject(d.Window, d.Event.Title)
	p := page{
		Heading:  subject,
		Greeting: "Hello " + d.ComedianName + ",",
		Lines:    []string{"You are booked to perform. Have a great show!"},
		Event:    d.Event,
		Links:    []link{{"View my applications", d.ApplicationsURL}},
		Footer:   "This is an automated message.",
	}
	return p.email(to, subject)
}

const layoutHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 24px; font-family: Arial, sans-serif; background-color: #f3f4f6;">
  <div style="max-width: 560px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 24px;">
    <h2 style="margin-top: 0; color: #4f46e5;">{{.Heading}}</h2>
    {{if .Greeting}}<p>{{.Greeting}}</p>{{end}}
    {{range .Lines}}<p>{{.}}</p>{{end}}
    {{if .Quote}}
    <div style="margin: 16px 0; padding: 16px; background-color: #f3f4f6; border-radius: 6px;">
      <b>{{.QuoteHead}}</b><br><i>{{.Quote}}</i>
    </div>
    {{end}}
    <div style="margin: 16px 0; padding: 16px; background-color: #e3f2fd; border-radius: 6px;">
      <div><b>{{.Event.Title}}</b></div>
      <div>{{.When}}</div>
      {{if .Where}}<div>{{.Where}}</div>{{end}}
    </div>
    {{range .Links}}
    <p style="text-align: center;">
      <a href="{{.URL}}" style="display: inline-block; padding: 12px 24px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px;">{{.Label}}</a>
    </p>
    {{end}}
    {{if .Footer}}<p style="color: #9ca3af; font-size: 12px;">{{.Footer}}</p>{{end}}
    <p style="color: #9ca3af; font-size: 12px;">{{.SiteName}}</p>
  </div>
</body>
</html>`
