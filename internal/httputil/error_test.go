package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PetLahev/fivb-monitor/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{
			name:   "format",
			err:    fmt.Errorf("%w: Invalid tournament code", roster.ErrFormat),
			status: http.StatusBadRequest,
			detail: "invalid format: Invalid tournament code",
		},
		{
			name:   "not found",
			err:    fmt.Errorf("tournament 9: %w", roster.ErrNotFound),
			status: http.StatusNotFound,
			detail: "tournament 9: not found",
		},
		{
			name:   "internal",
			err:    errors.New("disk on fire"),
			status: http.StatusInternalServerError,
			detail: "Internal Server Error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, "lookup failed", tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.detail, body["detail"])
		})
	}
}
