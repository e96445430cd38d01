package respond_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/standupconnect/internal/app/system/inputval"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
)

func TestMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Message(rec, http.StatusForbidden, "Not authorized")

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
	var body respond.MessageBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "Not authorized" {
		t.Errorf("message: got %q, want %q", body.Message, "Not authorized")
	}
}

func TestValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Validation(rec, &inputval.Result{Errors: []inputval.FieldError{{Field: "title", Message: "Title is required."}}})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), `"field":"title"`) {
		t.Errorf("body missing field error: %s", rec.Body.String())
	}
}

func TestDecode(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	t.Run("single object", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co"}`))
		if err := respond.Decode(httptest.NewRecorder(), req, &dst, 0); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if dst.Email != "a@b.co" {
			t.Errorf("email: got %q", dst.Email)
		}
	})

	t.Run("trailing data", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co"}{"x":1}`))
		if err := respond.Decode(httptest.NewRecorder(), req, &dst, 0); err == nil {
			t.Error("expected error for trailing data")
		}
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":`))
		if err := respond.Decode(httptest.NewRecorder(), req, &dst, 0); err == nil {
			t.Error("expected error for malformed body")
		}
	})
}
