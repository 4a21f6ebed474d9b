package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Thanhdhxd/logbook-app/apperr"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// envelope is the shape of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: status < 400, Message: msg, Data: data})
}

func ok(w http.ResponseWriter, msg string, data any) { writeJSON(w, http.StatusOK, msg, data) }

func created(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusCreated, msg, data)
}

func fail(w http.ResponseWriter, status int, msg string) { writeJSON(w, status, msg, nil) }

// writeError maps an apperr kind to its status. Unclassified and dependency
// errors are logged with the request id; their cause is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalidInput:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindDependencyUnavailable:
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path,
			"reqId", middleware.GetReqID(r.Context()), "err", err)
		if status == http.StatusServiceUnavailable {
			fail(w, status, "database unavailable")
		} else {
			fail(w, status, "internal error")
		}
		return
	}
	fail(w, status, apperr.Message(err))
}

// decodeJSON reads the body into dst, rejecting malformed JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syn), errors.As(err, &typ):
			return apperr.Invalid("bad json: %v", err)
		case errors.Is(err, io.EOF):
			return apperr.Invalid("empty body")
		default:
			return apperr.Invalid("bad json")
		}
	}
	return nil
}

// pathID parses the named URL parameter as an ObjectID.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := pathParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Invalid("bad %s %q", name, raw)
	}
	return id, nil
}

// pathParam returns the named URL parameter, unescaped when chi routed on the raw path.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		v = u
	}
	return strings.TrimSpace(v)
}

func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
}
