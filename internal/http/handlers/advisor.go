package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/competency-advisor/internal/http/response"
	"github.com/yungbote/competency-advisor/internal/observability"
	"github.com/yungbote/competency-advisor/internal/pkg/ctxutil"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
	"github.com/yungbote/competency-advisor/internal/services"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type AdvisorHandler struct {
	log       *logger.Logger
	advisor services.AdvisorService
	metrics *observability.Metrics
}

func NewAdvisorHandler(log *logger.Logger, advisor services.AdvisorService, metrics *observability.Metrics) *AdvisorHandler {
	return &AdvisorHandler{
		log:     log.With("handler", "AdvisorHandler"),
		advisor: advisor,
		metrics: metrics,
	}
}

type questionRequest struct {
	Question string `json:"question" form:"question"`
}

// POST /advisor
// body: { "question": "..." }
func (h *AdvisorHandler) Ask(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.advisor.Ask(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()), req.Question)
	if err != nil {
		response.RespondServiceError(c, err, "advisor_failed")
		return
	}
	h.metrics.IncAdvisorAnswer(string(res.Strategy))
	response.RespondOK(c, res)
}

// POST /ask
// Plain retrieval-augmented answer, no roadmap resolution.
func (h *AdvisorHandler) AskRetrieval(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.advisor.AskRetrieval(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()), req.Question)
	if err != nil {
		response.RespondServiceError(c, err, "answer_failed")
		return
	}
	h.metrics.IncAdvisorAnswer(string(res.Strategy))
	response.RespondOK(c, res)
}

// GET /advisor/history?limit=
func (h *AdvisorHandler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	rows, err := h.advisor.History(c.Request.Context(), ctxutil.EmployeeID(c.Request.Context()), limit)
	if err != nil {
		response.RespondServiceError(c, err, "history_failed")
		return
	}
	response.RespondOK(c, gin.H{"queries": rows})
}
