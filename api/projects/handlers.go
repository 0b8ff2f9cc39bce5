package projects

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/subclip/api/types"
	"github.com/killallgit/subclip/internal/models"
)

// ListProjects returns every clip project with request counts per status
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Success      200 {object} types.ProjectsResponse
// @Failure      500 {object} types.ErrorResponse
// @Router       /api/v1/projects [get]
func ListProjects(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := deps.Clips.ListProjects(c.Request.Context())
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.ProjectsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Projects:     projects,
			Count:        len(projects),
		})
	}
}

// UpdateStatus sets a project's status
// @Summary      Set a project status
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Project ID"
// @Param        request body types.StatusUpdateRequest true "New status"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/projects/{id}/status [put]
func UpdateStatus(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.StatusUpdateRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		id := c.Param("id")
		if err := deps.Clips.UpdateProjectStatus(c.Request.Context(), id, models.ProjectStatus(req.Status)); err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, gin.H{
			"status":         types.StatusOK,
			"id":             id,
			"project_status": req.Status,
		})
	}
}
