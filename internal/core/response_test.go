// AngelaMos | 2026
// response_test.go

package core

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindTarget struct {
	Email string `json:"email" validate:"required,email"`
	Qty   int    `json:"qty"   validate:"gte=1"`
}

func TestBind(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"valid", `{"email":"a@example.com","qty":2}`, ""},
		{"malformed", `{"email":`, "invalid request body"},
		{"missing email", `{"qty":1}`, "email is required"},
		{"bad qty", `{"email":"a@example.com","qty":0}`, "qty must be greater than 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst bindTarget
			err := Bind(req, v, &dst)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, "a@example.com", dst.Email)
				return
			}

			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, StatusFromError(err))

			rec := httptest.NewRecorder()
			JSONError(rec, err)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Equal(t, "VALIDATION_ERROR", body.Code)
		})
	}
}
