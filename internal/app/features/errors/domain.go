package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/standupconnect/internal/app/lifecycle"
	"github.com/dalemusser/standupconnect/internal/app/system/respond"
)

var domainErrors = []struct {
	err    error
	status int
	msg    string
}{
	{lifecycle.ErrNotFound, http.StatusNotFound, "Application not found"},
	{lifecycle.ErrEventNotFound, http.StatusNotFound, "Event not found"},
	{lifecycle.ErrAbsenceNotFound, http.StatusNotFound, "Absence not found"},
	{lifecycle.ErrForbidden, http.StatusForbidden, "Access denied"},
	{lifecycle.ErrInvalidStatus, http.StatusBadRequest, "Invalid status"},
	{lifecycle.ErrAlreadyApplied, http.StatusBadRequest, "You have already applied to this event"},
	{lifecycle.ErrWithdrawn, http.StatusBadRequest, "You withdrew from this event and cannot apply again"},
	{lifecycle.ErrNotParticipant, http.StatusBadRequest, "Comedian is not a participant of this event"},
	{lifecycle.ErrConflict, http.StatusConflict, "Application was changed by another request; reload and retry"},
	{lifecycle.ErrInvalidLink, http.StatusBadRequest, "Invalid or expired link"},
	{lifecycle.ErrInvalidLinkAction, http.StatusBadRequest, "Action must be keep or withdraw"},
}

// LogDomainError writes the status and message that a lifecycle error maps
// to. Unrecognised errors are logged and answered with 500.
func (e *ErrorLogger) LogDomainError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	for _, d := range domainErrors {
		if stderrors.Is(err, d.err) {
			respond.Message(w, d.status, d.msg)
			return
		}
	}
	e.LogServerError(w, r, msg, err, "")
}
