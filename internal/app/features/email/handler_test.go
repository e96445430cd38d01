package email_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/standupconnect/internal/app/features/email"
	uierrors "github.com/dalemusser/standupconnect/internal/app/features/errors"
	"github.com/dalemusser/standupconnect/internal/app/system/mailer"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/dalemusser/standupconnect/internal/testutil"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []mailer.Email
	err  error
}

func (f *fakeSender) Send(kind string, e mailer.Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

func newRouter(s email.Sender) http.Handler {
	logger := zap.NewNop()
	return email.Routes(email.NewHandler(s, uierrors.NewErrorLogger(logger), logger))
}

var body = map[string]string{"to": "Someone@Example.com", "subject": "Hello", "text": "Line one"}

func TestSend(t *testing.T) {
	s := &fakeSender{}
	admin := testutil.ComedianUser()
	admin.Role = models.RoleAdmin

	rec := testutil.NewRecorder()
	newRouter(s).ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest("POST", "/send", body), admin))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertMessage(t, "Email sent successfully")

	if len(s.sent) != 1 || s.sent[0].To != "someone@example.com" || s.sent[0].TextBody != "Line one" {
		t.Errorf("sent: %+v", s.sent)
	}
}

func TestSend_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		user   *testutil.TestUser
		body   any
		sender *fakeSender
		want   int
	}{
		{"anonymous", nil, body, &fakeSender{}, http.StatusUnauthorized},
		{"comedian", ptr(testutil.ComedianUser()), body, &fakeSender{}, http.StatusForbidden},
		{"organizer", ptr(testutil.OrganizerUser()), body, &fakeSender{}, http.StatusForbidden},
		{"missing text", ptr(testutil.SuperAdminUser()), map[string]string{"to": "a@b.co", "subject": "x"}, &fakeSender{}, http.StatusBadRequest},
		{"bad address", ptr(testutil.SuperAdminUser()), map[string]string{"to": "nope", "subject": "x", "text": "y"}, &fakeSender{}, http.StatusBadRequest},
		{"smtp failure", ptr(testutil.SuperAdminUser()), body, &fakeSender{err: errors.New("connection refused")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest("POST", "/send", tt.body)
			if tt.user != nil {
				req = testutil.WithUser(req, *tt.user)
			}
			rec := testutil.NewRecorder()
			newRouter(tt.sender).ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.want)
		})
	}
}

func ptr(u testutil.TestUser) *testutil.TestUser { return &u }
