package respond

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: apperr.NotFound("user", 1), want: http.StatusNotFound},
		{err: fmt.Errorf("insert: %w", apperr.ErrConflict), want: http.StatusConflict},
		{err: apperr.Validation("bad"), want: http.StatusBadRequest},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.err), tt.err.Error())
	}
}

func TestError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), "Error", errors.New("password=secret"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestPathID(t *testing.T) {
	var got int64
	var gotErr error

	router := chi.NewRouter()
	router.Get("/users/{id}", func(_ http.ResponseWriter, r *http.Request) {
		got, gotErr = PathID(r, "user")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/42", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, int64(42), got)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/abc", nil))
	require.ErrorIs(t, gotErr, apperr.ErrNotFound)
}

func TestDecode(t *testing.T) {
	type request struct {
		Name string `json:"name" validate:"required"`
	}

	var ok request
	require.NoError(t, Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`)), &ok))
	assert.Equal(t, "x", ok.Name)

	var missing request
	err := Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), &missing)
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "field name")

	var malformed request
	err = Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)), &malformed)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDecode_Optional(t *testing.T) {
	type request struct {
		Phone Optional[string] `json:"phone" validate:"omitempty,max=5"`
	}

	tests := []struct {
		name    string
		body    string
		set     bool
		null    bool
		value   string
		invalid bool
	}{
		{name: "absent", body: `{}`},
		{name: "null", body: `{"phone":null}`, set: true, null: true},
		{name: "value", body: `{"phone":"555"}`, set: true, value: "555"},
		{name: "too long", body: `{"phone":"555-0100"}`, invalid: true},
		{name: "wrong type", body: `{"phone":5}`, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req request
			err := Decode(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body)), &req)
			if tt.invalid {
				require.ErrorIs(t, err, apperr.ErrValidation)

				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.set, req.Phone.Set)
			assert.Equal(t, tt.null, req.Phone.Null())
			if tt.value != "" {
				require.NotNil(t, req.Phone.Value)
				assert.Equal(t, tt.value, *req.Phone.Value)
			} else {
				assert.Nil(t, req.Phone.Value)
			}
		})
	}
}
