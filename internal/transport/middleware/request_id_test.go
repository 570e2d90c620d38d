package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/heartmarshall/myenglish-session/pkg/ctxutil"
)

func serveWithRequestID(header string) (ctxID string, rec *httptest.ResponseRecorder) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = ctxutil.RequestIDFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("X-Request-Id", header)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return ctxID, rec
}

func TestRequestID_KeepsClientID(t *testing.T) {
	t.Parallel()

	id, rec := serveWithRequestID("client-abc")
	assert.Equal(t, "client-abc", id)
	assert.Equal(t, "client-abc", rec.Header().Get("X-Request-Id"))
}

func TestRequestID_Generates(t *testing.T) {
	t.Parallel()

	for _, header := range []string{"", strings.Repeat("x", maxRequestIDLen+1), "has space", "caf\u00e9"} {
		id, rec := serveWithRequestID(header)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, rec.Header().Get("X-Request-Id"))
	}
}
