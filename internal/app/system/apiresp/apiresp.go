// internal/app/system/apiresp/apiresp.go
package apiresp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the wire shape for every failed API call.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

func BadRequest(w http.ResponseWriter, msg string) { Error(w, http.StatusBadRequest, msg) }

func Unauthorized(w http.ResponseWriter) { Error(w, http.StatusUnauthorized, "unauthorized") }

func Forbidden(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "forbidden"
	}
	Error(w, http.StatusForbidden, msg)
}

func NotFound(w http.ResponseWriter, msg string) { Error(w, http.StatusNotFound, msg) }

func Conflict(w http.ResponseWriter, msg string) { Error(w, http.StatusConflict, msg) }

// Decode reads a JSON body into dst, rejecting unknown fields and oversized bodies.
// An empty body decodes to the zero value.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errs.Invalid("invalid JSON body: %v", err)
	}
	return nil
}

// ErrorLogger writes error responses and logs server-side failures with
// request context.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// ServerError logs err and writes a generic 500.
func (e *ErrorLogger) ServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if e != nil && e.Log != nil {
		e.Log.Error(msg,
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
	}
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Fail maps err to a status code. Domain errors carry their own message;
// a missing document is a 404; anything else is logged as a 500.
func (e *ErrorLogger) Fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch errs.KindOf(err) {
	case errs.KindInvalid:
		BadRequest(w, errs.Message(err))
		return
	case errs.KindNotFound:
		NotFound(w, errs.Message(err))
		return
	case errs.KindConflict:
		Conflict(w, errs.Message(err))
		return
	case errs.KindForbidden:
		Forbidden(w, errs.Message(err))
		return
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		NotFound(w, "not found")
		return
	}
	e.ServerError(w, r, msg, err)
}
