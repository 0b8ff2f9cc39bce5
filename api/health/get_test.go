package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/subclip/api/types"
	"github.com/killallgit/subclip/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		setupDeps      func(t *testing.T) *types.Dependencies
		expectedStatus int
		expectedBody   map[string]interface{}
	}{
		{
			name: "healthy with database",
			setupDeps: func(t *testing.T) *types.Dependencies {
				db, err := database.Initialize(filepath.Join(t.TempDir(), "health.db"), false)
				require.NoError(t, err)
				t.Cleanup(func() { db.Close() })
				return &types.Dependencies{DB: db, Version: "1.2.3"}
			},
			expectedStatus: http.StatusOK,
			expectedBody: map[string]interface{}{
				"status":  "healthy",
				"version": "1.2.3",
				"database": map[string]interface{}{
					"status":    "healthy",
					"connected": true,
				},
			},
		},
		{
			name: "healthy without database",
			setupDeps: func(t *testing.T) *types.Dependencies {
				return &types.Dependencies{}
			},
			expectedStatus: http.StatusOK,
			expectedBody: map[string]interface{}{
				"status": "healthy",
				"database": map[string]interface{}{
					"status":    "not configured",
					"connected": false,
				},
			},
		},
		{
			name: "unhealthy with closed database",
			setupDeps: func(t *testing.T) *types.Dependencies {
				db, err := database.Initialize(filepath.Join(t.TempDir(), "closed.db"), false)
				require.NoError(t, err)
				sqlDB, err := db.DB.DB()
				require.NoError(t, err)
				sqlDB.Close()
				return &types.Dependencies{DB: db}
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody: map[string]interface{}{
				"status": "unhealthy",
				"database": map[string]interface{}{
					"status":    "unhealthy",
					"connected": false,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

			Get(tt.setupDeps(t))(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

			assert.Equal(t, tt.expectedBody["status"], response["status"])
			assert.Equal(t, tt.expectedBody["version"], response["version"])

			dbStatus, ok := response["database"].(map[string]interface{})
			require.True(t, ok)
			expectedDB := tt.expectedBody["database"].(map[string]interface{})
			assert.Equal(t, expectedDB["connected"], dbStatus["connected"])
			assert.Equal(t, expectedDB["status"], dbStatus["status"])
		})
	}
}
