package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/standupconnect/internal/app/features/errors"
	"github.com/dalemusser/standupconnect/internal/app/lifecycle"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
	"github.com/dalemusser/standupconnect/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogServerError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	req := testutil.NewAuthenticatedRequest("GET", "/api/events", testutil.OrganizerUser())
	rec := testutil.NewRecorder()
	el.LogServerError(rec, req, "db failed", errors.New("boom"), "")

	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertMessage(t, "Server error")

	entries := logs.FilterMessage("db failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["path"] != "/api/events" || ctx["role"] != "ORGANIZER" {
		t.Errorf("unexpected log fields: %v", ctx)
	}
}

func TestLogBadRequest(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	rec := testutil.NewRecorder()
	el.LogBadRequest(rec, testutil.NewRequest("POST", "/api/events"), "decode", errors.New("eof"), "Invalid JSON body")

	rec.AssertStatus(t, http.StatusBadRequest)
	var body respond.MessageBody
	rec.DecodeJSON(t, &body)
	if body.Message != "Invalid JSON body" {
		t.Errorf("message: got %q", body.Message)
	}
}

func TestLogDomainError(t *testing.T) {
	el := uierrors.NewErrorLogger(zap.NewNop())
	tests := []struct {
		err  error
		want int
	}{
		{lifecycle.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", lifecycle.ErrEventNotFound), http.StatusNotFound},
		{lifecycle.ErrForbidden, http.StatusForbidden},
		{lifecycle.ErrAlreadyApplied, http.StatusBadRequest},
		{lifecycle.ErrConflict, http.StatusConflict},
		{errors.New("socket closed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := testutil.NewRecorder()
			el.LogDomainError(rec, testutil.NewRequest("GET", "/"), "op", tt.err)
			rec.AssertStatus(t, tt.want)
		})
	}
}
