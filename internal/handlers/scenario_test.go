package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/deadtown/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioHandler(t *testing.T) {
	store := storage.NewMemoryStorage("", nil)
	store.AddScenario("outbreak.json", outbreak(t))
	h := NewScenarioHandler(testLogger(), store)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		check          func(t *testing.T, body []byte)
	}{
		{
			name:           "list",
			method:         http.MethodGet,
			path:           "/v1/scenarios",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var names map[string]string
				require.NoError(t, json.Unmarshal(body, &names))
				assert.Equal(t, map[string]string{"Outbreak": "outbreak.json"}, names)
			},
		},
		{
			name:           "get",
			method:         http.MethodGet,
			path:           "/v1/scenarios/outbreak.json",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var got struct {
					Name      string `json:"name"`
					Buildings []struct {
						ID string `json:"id"`
					} `json:"buildings"`
				}
				require.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, "Outbreak", got.Name)
				assert.Len(t, got.Buildings, 6)
			},
		},
		{"missing", http.MethodGet, "/v1/scenarios/nope.json", http.StatusNotFound, nil},
		{"traversal", http.MethodGet, "/v1/scenarios/..secret.json", http.StatusBadRequest, nil},
		{"wrong method", http.MethodPost, "/v1/scenarios", http.StatusMethodNotAllowed, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			if tt.check != nil {
				tt.check(t, rec.Body.Bytes())
			}
		})
	}
}
