package handler

import (
	"github.com/gin-gonic/gin"
	appfinance "github.com/immo/backend/internal/application/finance"
	"github.com/immo/backend/internal/domain/realestate"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/interfaces/http/dto"
	"github.com/immo/backend/internal/interfaces/http/middleware"
)

// ProjectHandler handles project endpoints
type ProjectHandler struct {
	BaseHandler
	projects *appfinance.ProjectService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projects *appfinance.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// RegisterRoutes registers the project routes under rg
func (h *ProjectHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/projects")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id/capacity", h.UpdateCapacity)
}

// Create handles POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req CreateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), appfinance.CreateProjectRequest{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		Surface:     req.Surface,
		Capacity: realestate.ProjectCapacity{
			Apartments: req.Apartments,
			Garages:    req.Garages,
			Lots:       req.Lots,
		},
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, project)
}

// Get handles GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	project, err := h.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// List handles GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.Normalize()

	filter := shared.DefaultFilter()
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	filter.Search = req.Search
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}

	projects, total, err := h.projects.ListProjects(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, projects, total, filter.Page, filter.PageSize)
}

// UpdateCapacity handles PUT /projects/:id/capacity. Reducing a category
// below its active sales is refused with CAPACITY_BELOW_SOLD.
func (h *ProjectHandler) UpdateCapacity(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateCapacityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projects.UpdateCapacity(c.Request.Context(), appfinance.UpdateCapacityRequest{
		ProjectID:   id,
		Category:    realestate.UnitCategory(req.Category),
		NewCapacity: *req.Capacity,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}
