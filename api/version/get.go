package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/subclip/api/types"
)

// Get handles version requests
// @Summary      Version information
// @Tags         version
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /version [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	version := "dev"
	if deps != nil && deps.Version != "" {
		version = deps.Version
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "subclip",
			"version":     version,
			"description": "Subtitle search and clip extraction API",
			"status":      "running",
		})
	}
}
