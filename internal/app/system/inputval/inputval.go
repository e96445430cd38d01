// internal/app/system/inputval/inputval.go
package inputval

import (
	"net/mail"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/standupconnect/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule. Field is the JSON path of the input
// ("location.city"); Message is a sentence built from the label tag.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result collects the errors from Validate.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return r != nil && len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if !r.HasErrors() {
		return ""
	}
	return r.Errors[0].Message
}

var (
	once sync.Once
	v    *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		_ = v.RegisterValidation("email", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := time.Parse("15:04", fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
			_, ok := ParseDate(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("appstatus", func(fl validator.FieldLevel) bool {
			return models.ValidStatus(fl.Field().String())
		})
	})
	return v
}

// Validate runs the `validate` struct tags on input.
// Messages use the `label` tag, falling back to the field name.
func Validate(input any) *Result {
	res := &Result{}
	err := engine().Struct(input)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	t := reflect.TypeOf(input)
	for _, fe := range verrs {
		path, label := describe(t, fe.StructNamespace())
		if label == "" {
			label = fe.Field()
		}
		res.Errors = append(res.Errors, FieldError{Field: path, Message: message(fe, label)})
	}
	return res
}

// describe walks a validator namespace ("Input.Location.City") through t and
// returns the JSON path and the label of the leaf field.
func describe(t reflect.Type, ns string) (string, string) {
	parts := strings.Split(ns, ".")
	if len(parts) > 0 {
		parts = parts[1:]
	}
	var path []string
	label := ""
	for _, p := range parts {
		for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			break
		}
		name := p
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		f, ok := t.FieldByName(name)
		if !ok {
			path = append(path, name)
			break
		}
		jsonName := strings.Split(f.Tag.Get("json"), ",")[0]
		if jsonName == "" || jsonName == "-" {
			jsonName = f.Name
		}
		path = append(path, jsonName)
		label = f.Tag.Get("label")
		t = f.Type
	}
	return strings.Join(path, "."), label
}

func message(fe validator.FieldError, label string) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required", "required_with", "required_without":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "min":
		if isString {
			return label + " must be at least " + fe.Param() + " characters."
		}
		return label + " must be " + fe.Param() + " or greater."
	case "max":
		if isString {
			return label + " must be at most " + fe.Param() + " characters."
		}
		return label + " must be " + fe.Param() + " or less."
	case "gte":
		return label + " must be " + fe.Param() + " or greater."
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "httpurl", "url":
		return label + " must be a valid http(s) URL."
	case "objectid":
		return label + " must be a valid id."
	case "hhmm":
		return label + " must be a time in HH:MM format."
	case "rfc3339":
		return label + " must be a valid date."
	case "appstatus":
		return label + " must be PENDING, ACCEPTED, or REJECTED."
	}
	return label + " is invalid."
}

// IsValidEmail reports whether s is a bare address (no display name) with a
// well-formed local part and domain. Single-label domains are allowed.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// IsValidHTTPURL reports whether s is an absolute http or https URL with a host.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidObjectID reports whether s is a 24-character hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.ToLower(strings.TrimSpace(s)))
	return err == nil
}

// ParseDate accepts RFC 3339 timestamps and bare YYYY-MM-DD dates (UTC midnight).
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
