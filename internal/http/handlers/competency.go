package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/competency-advisor/internal/http/response"
	"github.com/yungbote/competency-advisor/internal/learning"
	"github.com/yungbote/competency-advisor/internal/pkg/ctxutil"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
	"github.com/yungbote/competency-advisor/internal/services"
)

var (
	errInvalidCompetencyID = errors.New("competency id must be a positive integer")
	errMissingName         = errors.New("name is required")
	errUnknownCompetency   = errors.New("competency not found")
)

type CompetencyHandler struct {
	log             *logger.Logger
	catalog         services.CatalogService
	roadmaps        services.RoadmapService
	progress        services.ProgressService
	recommendations services.RecommendationService
}

func NewCompetencyHandler(
	log *logger.Logger,
	catalog services.CatalogService,
	roadmaps services.RoadmapService,
	progress services.ProgressService,
	recommendations services.RecommendationService,
) *CompetencyHandler {
	return &CompetencyHandler{
		log:             log.With("handler", "CompetencyHandler"),
		catalog:         catalog,
		roadmaps:        roadmaps,
		progress:        progress,
		recommendations: recommendations,
	}
}

func competencyIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_competency_id", errInvalidCompetencyID)
		return 0, false
	}
	return id, true
}

// GET /competencies/:id
func (h *CompetencyHandler) Get(c *gin.Context) {
	id, ok := competencyIDParam(c)
	if !ok {
		return
	}
	comp, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err, "load_competency_failed")
		return
	}
	canStart, err := h.progress.CanStart(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()), id)
	if err != nil {
		response.RespondServiceError(c, err, "prerequisite_check_failed")
		return
	}
	response.RespondOK(c, gin.H{"competency": comp, "can_start": canStart})
}

// POST /competencies/:id/start
func (h *CompetencyHandler) Start(c *gin.Context) {
	id, ok := competencyIDParam(c)
	if !ok {
		return
	}
	row, err := h.progress.Start(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()), id)
	if err != nil {
		response.RespondServiceError(c, err, "start_failed")
		return
	}
	response.RespondOK(c, gin.H{"progress": row})
}

// POST /competencies/:id/complete
func (h *CompetencyHandler) Complete(c *gin.Context) {
	id, ok := competencyIDParam(c)
	if !ok {
		return
	}
	row, err := h.progress.Complete(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()), id)
	if err != nil {
		response.RespondServiceError(c, err, "complete_failed")
		return
	}
	response.RespondOK(c, gin.H{"progress": row})
}

// PATCH /competencies/:id/progress
// body: { "progress": 0-100 }
func (h *CompetencyHandler) UpdateProgress(c *gin.Context) {
	id, ok := competencyIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Progress *int `json:"progress" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	row, err := h.progress.UpdateProgress(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()), id, *req.Progress)
	if err != nil {
		response.RespondServiceError(c, err, "update_progress_failed")
		return
	}
	response.RespondOK(c, gin.H{"progress": row})
}

// GET /my-competencies
func (h *CompetencyHandler) MyCompetencies(c *gin.Context) {
	rows, err := h.progress.ListMine(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, err, "list_progress_failed")
		return
	}
	response.RespondOK(c, gin.H{"competencies": rows})
}

// GET /learning-roadmap?limit=
func (h *CompetencyHandler) LearningRoadmap(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.recommendations.Eligible(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()), limit)
	if err != nil {
		response.RespondServiceError(c, err, "learning_roadmap_failed")
		return
	}
	response.RespondOK(c, gin.H{"competencies": rows})
}

// GET /roadmap/next
func (h *CompetencyHandler) Next(c *gin.Context) {
	next, err := h.recommendations.NextFor(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, err, "next_competency_failed")
		return
	}
	response.RespondOK(c, gin.H{"next": next})
}

// GET /competencies/path?q=
func (h *CompetencyHandler) Path(c *gin.Context) {
	rows, err := h.catalog.SearchPath(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.RespondServiceError(c, err, "path_search_failed")
		return
	}
	response.RespondOK(c, gin.H{"path": rows})
}

// GET /competencies/roadmap?name=&level=
func (h *CompetencyHandler) Roadmap(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_name", errMissingName)
		return
	}
	rm, err := h.roadmaps.BuildPersonalized(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()), name, c.Query("level"))
	if err != nil {
		response.RespondServiceError(c, err, "roadmap_failed")
		return
	}
	if rm == nil {
		response.RespondError(c, http.StatusNotFound, "competency_not_found", errUnknownCompetency)
		return
	}
	response.RespondOK(c, gin.H{"roadmap": rm, "text": rm.Render()})
}

// POST /competencies/sequence
// body: { "question": "..." }
func (h *CompetencyHandler) Sequence(c *gin.Context) {
	var req struct {
		Question string `json:"question" form:"question"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rm, err := h.catalog.SequenceUntilLevel(c.Request.Context(), req.Question)
	if err != nil {
		response.RespondServiceError(c, err, "sequence_failed")
		return
	}
	if rm == nil {
		response.RespondOK(c, gin.H{"answer": learning.NoMatchAnswer, "roadmap": nil})
		return
	}
	response.RespondOK(c, gin.H{"answer": rm.Render(), "roadmap": rm})
}
