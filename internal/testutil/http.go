package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// AsTestUser converts a stored fixture user.
func AsTestUser(u models.User) TestUser {
	return TestUser{ID: u.ID.Hex(), Name: u.FullName(), Email: u.Email, Role: u.Role}
}

// ComedianUser returns a TestUser with the COMEDIAN role.
func ComedianUser() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "Test Comedian", Email: "comedian@test.com", Role: models.RoleComedian}
}

// OrganizerUser returns a TestUser with the ORGANIZER role.
func OrganizerUser() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "Test Organizer", Email: "organizer@test.com", Role: models.RoleOrganizer}
}

// SuperAdminUser returns a TestUser with the SUPER_ADMIN role.
func SuperAdminUser() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "Test Super", Email: "super@test.com", Role: models.RoleSuperAdmin}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the token middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
func NewJSONRequest(method, target string, v any) *http.Request {
	var body io.Reader = http.NoBody
	if v != nil {
		switch b := v.(type) {
		case string:
			body = strings.NewReader(b)
		default:
			buf, err := json.Marshal(v)
			if err != nil {
				panic(err)
			}
			body = bytes.NewReader(buf)
		}
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	if location := r.Header().Get("Location"); location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertMessage checks the "message" field of a JSON error body.
func (r *ResponseRecorder) AssertMessage(t interface{ Errorf(string, ...any) }, expected string) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Body.Bytes(), &body); err != nil {
		t.Errorf("decode body %q: %v", r.Body.String(), err)
		return
	}
	if body.Message != expected {
		t.Errorf("message: got %q, want %q", body.Message, expected)
	}
}

// DecodeJSON decodes the body into v, reporting failures on t.
func (r *ResponseRecorder) DecodeJSON(t interface{ Fatalf(string, ...any) }, v any) {
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", r.Body.String(), err)
	}
}
