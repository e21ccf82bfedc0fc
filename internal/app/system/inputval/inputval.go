// Package inputval validates decoded request bodies with struct tags and
// turns failures into readable, field-labelled messages.
package inputval

import (
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// Result collects the failures of one Validate call.
type Result struct {
	Errors []FieldError
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Err returns an errs.Invalid carrying the first message, or nil.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return errs.Invalid("%s", r.First())
}

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			if j, _, _ := strings.Cut(f.Tag.Get("json"), ","); j != "" && j != "-" {
				return j
			}
			return f.Name
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool { return IsValidObjectID(fl.Field().String()) })
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool { return IsValidHTTPURL(fl.Field().String()) })
		_ = v.RegisterValidation("authmethod", func(fl validator.FieldLevel) bool { return IsValidAuthMethod(fl.Field().String()) })
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool { return models.ValidRole(fl.Field().String()) })
		_ = v.RegisterValidation("memberstatus", func(fl validator.FieldLevel) bool { return models.ValidMemberStatus(fl.Field().String()) })
	})
	return v
}

// Validate checks s against its `validate` tags. Field names in messages come
// from the `label` tag, then the json name.
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required.", label)
	case "email":
		return "A valid email address is required."
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "role":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(models.Roles, ", "))
	case "memberstatus":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(models.MemberStatuses, ", "))
	default:
		return fmt.Sprintf("%s is not valid.", label)
	}
}

// IsValidEmail accepts a bare RFC 5322 address (no display name) without
// leading, trailing or doubled dots.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s || a.Name != "" {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok {
		return false
	}
	for _, part := range []string{local, domain} {
		if part == "" || strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// IsValidHTTPURL accepts absolute http and https URLs with a host.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.ToLower(strings.TrimSpace(s)))
	return err == nil
}

var authMethods = []string{models.AuthPassword, models.AuthGoogle}

// AllowedAuthMethodsList returns the sign-in methods a member record may use.
func AllowedAuthMethodsList() []string {
	return append([]string(nil), authMethods...)
}

func IsValidAuthMethod(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range authMethods {
		if s == m {
			return true
		}
	}
	return false
}
