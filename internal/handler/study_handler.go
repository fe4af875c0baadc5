package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/websocket"
	"github.com/study-assistant/internal/export"
	"github.com/study-assistant/internal/llm"
	"github.com/study-assistant/internal/middleware"
	"github.com/study-assistant/internal/service"
	"github.com/study-assistant/pkg/response"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// StudyHandler handles generation, history and export API requests
type StudyHandler struct {
	studyService *service.StudyService
	upgrader     websocket.Upgrader
}

// NewStudyHandler creates a new StudyHandler
func NewStudyHandler(studyService *service.StudyService) *StudyHandler {
	return &StudyHandler{
		studyService: studyService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Generate runs one generation action for the logged-in user
// POST /api/v1/study/generate
func (h *StudyHandler) Generate(c *gin.Context) {
	var req service.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sess := middleware.GetSession(c)
	result, err := h.studyService.Generate(c.Request.Context(), sess.UserID, &req, nil)
	if err != nil {
		status, msg := generateErrorResponse(err)
		response.Error(c, status, -1, msg)
		return
	}

	response.Success(c, result)
}

// streamEvent is one message pushed over the generate websocket.
type streamEvent struct {
	Stage   string                  `json:"stage"`
	Message string                  `json:"message,omitempty"`
	Result  *service.GenerateResult `json:"result,omitempty"`
}

// GenerateStream runs a generation action and pushes staged progress
// events over a websocket
// GET /api/v1/study/generate/stream
func (h *StudyHandler) GenerateStream(c *gin.Context) {
	sess := middleware.GetSession(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var req service.GenerateRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(streamEvent{Stage: "error", Message: "invalid request"})
		return
	}
	// The websocket payload skips gin's binding, so run the same validators
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		_ = conn.WriteJSON(streamEvent{Stage: "error", Message: err.Error()})
		return
	}

	progress := func(stage, message string) {
		_ = conn.WriteJSON(streamEvent{Stage: stage, Message: message})
	}

	result, err := h.studyService.Generate(c.Request.Context(), sess.UserID, &req, progress)
	if err != nil {
		_, msg := generateErrorResponse(err)
		_ = conn.WriteJSON(streamEvent{Stage: "error", Message: msg})
		return
	}
	_ = conn.WriteJSON(streamEvent{Stage: "done", Result: result})
}

// History lists the user's past summaries, newest first
// GET /api/v1/study/history
func (h *StudyHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	sess := middleware.GetSession(c)
	entries, total, err := h.studyService.History(sess.UserID, page, pageSize)
	if err != nil {
		response.InternalError(c, "failed to load history")
		return
	}

	response.SuccessPaginated(c, entries, total, page, pageSize)
}

// exportRequest carries the text to render into a document.
type exportRequest struct {
	Text string `json:"text" binding:"required"`
}

// ExportPDF renders summary text as a downloadable PDF
// POST /api/v1/study/export/pdf
func (h *StudyHandler) ExportPDF(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	data, err := export.PDF(req.Text)
	if err != nil {
		response.InternalError(c, "failed to render pdf")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="summary.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// ExportPPTX renders summary text as a downloadable slide deck
// POST /api/v1/study/export/pptx
func (h *StudyHandler) ExportPPTX(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	data, err := export.PPTX("Summary", req.Text)
	if err != nil {
		response.InternalError(c, "failed to render pptx")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="summary.pptx"`)
	c.Data(http.StatusOK, pptxContentType, data)
}

// generateErrorResponse maps pipeline failures to a status and a
// user-visible message. Failures are reported, never allowed to abort the
// session.
func generateErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrContentFetch):
		return http.StatusBadGateway, "failed to fetch content"
	case errors.Is(err, llm.ErrInvalidAPIKey):
		return http.StatusUnauthorized, "invalid api key"
	case errors.Is(err, llm.ErrQuotaExceeded):
		return http.StatusBadGateway, "api quota exceeded"
	case errors.Is(err, llm.ErrEmptyResponse):
		return http.StatusBadGateway, "empty model response"
	default:
		return http.StatusInternalServerError, "generation failed"
	}
}

// RegisterRoutes registers study routes (all protected)
func (h *StudyHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	study := rg.Group("/study")
	study.Use(authMiddleware)
	{
		study.POST("/generate", h.Generate)
		study.GET("/generate/stream", h.GenerateStream)
		study.GET("/history", h.History)
		study.POST("/export/pdf", h.ExportPDF)
		study.POST("/export/pptx", h.ExportPPTX)
	}
}
