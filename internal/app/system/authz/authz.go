// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/standupconnect/internal/app/system/auth"
	"github.com/dalemusser/standupconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (uppercased), email, Mongo ObjectID, and a
// found flag. A missing user or malformed ID yields "", "", NilObjectID, false,
// so ok=true always means an authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, email string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	userID, valid := user.ObjectID()
	if !valid {
		return "", "", primitive.NilObjectID, false
	}
	return strings.ToUpper(user.Role), user.Email, userID, true
}

// IsSuperAdmin reports whether the caller is a SUPER_ADMIN.
func IsSuperAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleSuperAdmin
}

// IsSelf reports whether the caller is the user with the given ID.
func IsSelf(r *http.Request, userID primitive.ObjectID) bool {
	_, _, uid, ok := UserCtx(r)
	return ok && uid == userID
}
