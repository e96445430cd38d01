package login_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/standupconnect/internal/app/features/errors"
	"github.com/dalemusser/standupconnect/internal/app/features/login"
	"github.com/dalemusser/standupconnect/internal/app/store/audit"
	"github.com/dalemusser/standupconnect/internal/app/system/auditlog"
	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/dalemusser/standupconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type authBody struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"`
	User      models.User `json:"user"`
}

func newTestHandler(t *testing.T, limiter *ratelimit.LoginLimiter) (*login.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupSchemaDB(t)
	logger := zap.NewNop()
	tokens, err := auth.NewTokenManager(auth.DevSecret, time.Hour, "standupconnect", logger)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: auditlog.ModeDB, Admin: auditlog.ModeOff})
	return login.NewHandler(db, tokens, limiter, audits, uierrors.NewErrorLogger(logger), logger), db
}

func TestRegister_CreatesUserAndToken(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	req := testutil.NewJSONRequest("POST", "/api/auth/register", map[string]string{
		"email": "  Ada@Example.com ", "password": "secret1",
		"firstName": "Ada", "lastName": "Lovelace", "role": "comedian",
	})
	rec := testutil.NewRecorder()
	h.HandleRegister(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	var body authBody
	rec.DecodeJSON(t, &body)
	if body.Token == "" {
		t.Error("expected a token")
	}
	if body.ExpiresIn != int64(time.Hour/time.Second) {
		t.Errorf("expiresIn: got %d, want 3600", body.ExpiresIn)
	}
	if body.User.Email != "ada@example.com" || body.User.Role != models.RoleComedian {
		t.Errorf("user: got %q / %q", body.User.Email, body.User.Role)
	}
	claims, err := h.Tokens.Parse(body.Token)
	if err != nil || claims.ID != body.User.ID.Hex() {
		t.Errorf("token does not identify the user: %v", err)
	}
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Error("password hash must not be serialized")
	}
}

func TestRegister_Rejections(t *testing.T) {
	h, db := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.NewFixtures(t, db).CreateComedian(ctx, "Taken", "taken@example.com")

	tests := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{"existing email", map[string]string{
			"email": "TAKEN@example.com", "password": "secret1", "firstName": "Bob", "lastName": "Smith", "role": "COMEDIAN",
		}, "User already exists"},
		{"short password", map[string]string{
			"email": "new@example.com", "password": "abc", "firstName": "Bob", "lastName": "Smith", "role": "COMEDIAN",
		}, "Validation error"},
		{"admin role", map[string]string{
			"email": "new@example.com", "password": "secret1", "firstName": "Bob", "lastName": "Smith", "role": "ADMIN",
		}, "Validation error"},
		{"super admin role", map[string]string{
			"email": "new@example.com", "password": "secret1", "firstName": "Bob", "lastName": "Smith", "role": "SUPER_ADMIN",
		}, "Validation error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleRegister(rec, testutil.NewJSONRequest("POST", "/api/auth/register", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertMessage(t, tt.message)
		})
	}
}

func TestLogin(t *testing.T) {
	h, db := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := testutil.NewFixtures(t, db).CreateOrganizer(ctx, "Olga", "olga@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"valid", "olga@example.com", testutil.FixturePassword, http.StatusOK},
		{"email case ignored", "OLGA@example.com", testutil.FixturePassword, http.StatusOK},
		{"wrong password", "olga@example.com", "wrongpass", http.StatusUnauthorized},
		{"unknown email", "nobody@example.com", testutil.FixturePassword, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleLogin(rec, testutil.NewJSONRequest("POST", "/api/auth/login",
				map[string]string{"email": tt.email, "password": tt.password}))
			rec.AssertStatus(t, tt.want)
			if tt.want == http.StatusUnauthorized {
				rec.AssertMessage(t, "Invalid credentials")
				return
			}
			var body authBody
			rec.DecodeJSON(t, &body)
			if body.User.ID != u.ID || body.User.LastLoginAt == nil {
				t.Errorf("unexpected user in response: %+v", body.User)
			}
		})
	}

	n, _ := audit.New(db).Count(ctx, audit.QueryFilter{EventType: audit.EventLoginSuccess})
	if n != 2 {
		t.Errorf("login_success audit events: got %d, want 2", n)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	limiter := ratelimit.NewLoginLimiter(100)
	defer limiter.Stop()
	h, _ := newTestHandler(t, limiter)

	var last *testutil.ResponseRecorder
	for i := 0; i < 4; i++ {
		last = testutil.NewRecorder()
		h.HandleLogin(last, testutil.NewJSONRequest("POST", "/api/auth/login",
			map[string]string{"email": "victim@example.com", "password": "guess123"}))
	}
	// The per-email budget is max(100/5, 3) = 20, so four attempts pass it.
	last.AssertStatus(t, http.StatusUnauthorized)

	tight := ratelimit.NewLoginLimiter(1)
	defer tight.Stop()
	h.Limiter = tight
	for i := 0; i < 2; i++ {
		last = testutil.NewRecorder()
		h.HandleLogin(last, testutil.NewJSONRequest("POST", "/api/auth/login",
			map[string]string{"email": "victim@example.com", "password": "guess123"}))
	}
	last.AssertStatus(t, http.StatusTooManyRequests)
}

func TestServeProfile(t *testing.T) {
	h, db := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := testutil.NewFixtures(t, db).CreateComedian(ctx, "Carl", "carl@example.com")

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest("GET", "/api/auth/profile", testutil.AsTestUser(u)))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest("GET", "/api/auth/profile", testutil.ComedianUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestRoutes_UsersRequiresSuperAdmin(t *testing.T) {
	h, db := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	fx.CreateComedian(ctx, "Carl", "carl@example.com")
	fx.CreateOrganizer(ctx, "Olga", "olga@example.com")
	admin := fx.CreateSuperAdmin(ctx, "root@example.com")
	router := login.Routes(h)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/users", testutil.OrganizerUser()))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/users", testutil.AsTestUser(admin)))
	rec.AssertStatus(t, http.StatusOK)
	var users []models.User
	rec.DecodeJSON(t, &users)
	if len(users) != 2 {
		t.Errorf("expected comedians and organizers only, got %d users", len(users))
	}
}
