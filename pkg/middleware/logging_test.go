package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uwcoe/persondir/pkg/configuration"
)

func TestRequestID(t *testing.T) {
	header := configuration.Use().RequestIDHeader

	router := mux.NewRouter()
	router.Use(RequestID())
	var seen string
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		seen = UseRequestID(r.Context())
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen, "a request without the header gets a minted id")
	assert.Equal(t, seen, rec.Header().Get(header))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(header, "abc-123")
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc-123", seen, "a supplied id is propagated, not replaced")
}

func TestLogRequests(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()

	router := mux.NewRouter()
	router.Use(RequestID(), LogRequests(logger))
	router.HandleFunc("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, "/teapot", entry.Data["path"])
	assert.NotEmpty(t, entry.Data["request_id"])
}
