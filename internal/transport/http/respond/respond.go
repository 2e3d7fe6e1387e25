// Package respond holds the request decoding and response writing shared by the HTTP handlers.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})
	v.RegisterCustomTypeFunc(optionalValue[string], Optional[string]{})

	return v
}

// Optional is a request field that tells an explicit JSON null apart from an
// absent key. Validation tags apply to the value when one was sent.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil

		return nil
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v

	return nil
}

// Null reports whether the field was sent as null.
func (o Optional[T]) Null() bool {
	return o.Set && o.Value == nil
}

func optionalValue[T any](field reflect.Value) any {
	o, ok := field.Interface().(Optional[T])
	if !ok || o.Value == nil {
		return nil
	}

	return *o.Value
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// Message writes {"message": msg} with status 200.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, messageResponse{Message: msg})
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as {"error": ...}. Unexpected errors are logged with msg and
// their details are not exposed to the client.
func Error(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err, "request_id", middleware.GetReqID(r.Context()))
		JSON(w, status, errorResponse{Error: http.StatusText(status)})

		return
	}

	slog.Debug(msg, "error", err, "status", status)
	JSON(w, status, errorResponse{Error: err.Error()})
}

// PathID parses the {id} URL parameter. A malformed id is reported as NotFound
// for the given entity, the same as an id that does not exist.
func PathID(r *http.Request, entity string) (int64, error) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", entity, raw, apperr.ErrNotFound)
	}

	return id, nil
}

// Decode reads a JSON body into dst and validates it with its `validate` tags.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]

			return apperr.Validation("field %s failed on %q", fe.Field(), fe.Tag())
		}

		return apperr.Validation("%v", err)
	}

	return nil
}
