package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/present"
	"github.com/jengzang/quake-explorer-go/internal/service"
	"github.com/jengzang/quake-explorer-go/internal/spatial"
	"github.com/jengzang/quake-explorer-go/pkg/response"
)

// ExplorerHandler handles HTTP requests for explorer pages and sessions
type ExplorerHandler struct {
	service *service.ExplorerService
}

// NewExplorerHandler creates a new explorer handler
func NewExplorerHandler(service *service.ExplorerService) *ExplorerHandler {
	return &ExplorerHandler{service: service}
}

type filterRequest struct {
	Value interface{} `json:"value"`
}

type searchRequest struct {
	Term string `json:"term"`
}

type paginationRequest struct {
	Page     *int `json:"page"`
	PageSize int  `json:"pageSize" binding:"required"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// fail maps service errors onto HTTP status codes
func fail(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrPageNotFound),
		errors.Is(err, models.ErrRecordNotFound):
		response.Error(c, http.StatusNotFound, message, err)
	case errors.Is(err, models.ErrUnknownField),
		errors.Is(err, models.ErrFilterValueMismatch),
		errors.Is(err, service.ErrInvalidPageSize),
		errors.Is(err, service.ErrMapDisabled):
		response.BadRequest(c, message, err)
	default:
		response.InternalError(c, message, err)
	}
}

func (h *ExplorerHandler) session(c *gin.Context) (*service.Session, bool) {
	sess, err := h.service.Session(c.Param("id"))
	if err != nil {
		fail(c, "Session not found", err)
		return nil, false
	}
	return sess, true
}

// respondView sends the composed session state
func (h *ExplorerHandler) respondView(c *gin.Context, sess *service.Session, wait bool) {
	view, err := sess.View(c.Request.Context(), wait)
	if err != nil {
		response.Error(c, http.StatusGatewayTimeout, "Timed out waiting for data", err)
		return
	}
	response.Success(c, view)
}

// ListPages handles GET /api/v1/pages
func (h *ExplorerHandler) ListPages(c *gin.Context) {
	response.Success(c, h.service.Pages())
}

// GetPage handles GET /api/v1/pages/:page
func (h *ExplorerHandler) GetPage(c *gin.Context) {
	page, err := h.service.Page(c.Param("page"))
	if err != nil {
		fail(c, "Page not found", err)
		return
	}
	response.Success(c, page)
}

// CreateSession handles POST /api/v1/pages/:page/sessions
func (h *ExplorerHandler) CreateSession(c *gin.Context) {
	sess, err := h.service.Mount(c.Param("page"))
	if err != nil {
		fail(c, "Failed to create session", err)
		return
	}
	view, err := sess.View(c.Request.Context(), false)
	if err != nil {
		response.InternalError(c, "Failed to create session", err)
		return
	}
	response.Created(c, view)
}

// GetSession handles GET /api/v1/sessions/:id
func (h *ExplorerHandler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	wait, _ := strconv.ParseBool(c.Query("wait"))
	h.respondView(c, sess, wait)
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *ExplorerHandler) DeleteSession(c *gin.Context) {
	if err := h.service.Unmount(c.Param("id")); err != nil {
		fail(c, "Session not found", err)
		return
	}
	response.Success(c, nil)
}

// SetFilter handles PUT /api/v1/sessions/:id/filters/:field
func (h *ExplorerHandler) SetFilter(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	if err := sess.SetFilter(c.Param("field"), req.Value); err != nil {
		fail(c, "Invalid filter value", err)
		return
	}
	h.respondView(c, sess, false)
}

// ClearFilter handles DELETE /api/v1/sessions/:id/filters/:field
func (h *ExplorerHandler) ClearFilter(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.ClearFilter(c.Param("field")); err != nil {
		fail(c, "Invalid filter", err)
		return
	}
	h.respondView(c, sess, false)
}

// ClearFilters handles DELETE /api/v1/sessions/:id/filters
func (h *ExplorerHandler) ClearFilters(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.ClearFilters()
	h.respondView(c, sess, false)
}

// SetSearch handles PUT /api/v1/sessions/:id/search
func (h *ExplorerHandler) SetSearch(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	sess.SetSearch(req.Term)
	h.respondView(c, sess, false)
}

// SetPagination handles PUT /api/v1/sessions/:id/pagination
func (h *ExplorerHandler) SetPagination(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req paginationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	page := 0
	if req.Page != nil {
		page = *req.Page
	}
	if err := sess.SetPagination(page, req.PageSize); err != nil {
		fail(c, "Invalid pagination", err)
		return
	}
	h.respondView(c, sess, false)
}

// Brush handles POST /api/v1/sessions/:id/brush
func (h *ExplorerHandler) Brush(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var rect spatial.BrushRect
	if err := c.ShouldBindJSON(&rect); err != nil {
		response.BadRequest(c, "Invalid brush rectangle", err)
		return
	}
	if _, err := sess.Brush(rect); err != nil {
		fail(c, "Failed to apply brush", err)
		return
	}
	h.respondView(c, sess, false)
}

// ClearBrush handles DELETE /api/v1/sessions/:id/brush
func (h *ExplorerHandler) ClearBrush(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	sess.ClearBrush()
	h.respondView(c, sess, false)
}

// Hover handles POST /api/v1/sessions/:id/hover. A miss returns null data.
func (h *ExplorerHandler) Hover(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req pointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid hover position", err)
		return
	}
	hover, err := sess.Hover(req.X, req.Y)
	if err != nil {
		fail(c, "Failed to hit-test map", err)
		return
	}
	response.Success(c, hover)
}

// GetMap handles GET /api/v1/sessions/:id/map. An in-progress drag can be
// passed as ?brush=x0,y0,x1,y1.
func (h *ExplorerHandler) GetMap(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var brush *spatial.BrushRect
	if raw := c.Query("brush"); raw != "" {
		b, err := parseBrush(raw)
		if err != nil {
			response.BadRequest(c, "Invalid brush parameter", err)
			return
		}
		brush = &b
	}
	frame, err := sess.Map(brush)
	if err != nil {
		fail(c, "Failed to render map", err)
		return
	}
	response.Success(c, frame)
}

func parseBrush(raw string) (spatial.BrushRect, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return spatial.BrushRect{}, fmt.Errorf("expected x0,y0,x1,y1, got %q", raw)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return spatial.BrushRect{}, fmt.Errorf("invalid coordinate %q: %w", p, err)
		}
		v[i] = f
	}
	return spatial.BrushRect{StartX: v[0], StartY: v[1], CurrentX: v[2], CurrentY: v[3]}, nil
}

// ExportCSV handles GET /api/v1/sessions/:id/export.csv
func (h *ExplorerHandler) ExportCSV(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	exp, err := sess.Export()
	if err != nil {
		response.InternalError(c, "Failed to export data", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	c.Header("X-Export-Rows", strconv.Itoa(exp.Rows))
	c.Data(http.StatusOK, "text/csv;charset=utf-8", []byte(exp.Body))
}

// GetSummary handles GET /api/v1/sessions/:id/summary
func (h *ExplorerHandler) GetSummary(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	response.Success(c, sess.Summary())
}

// GetPreview handles GET /api/v1/sessions/:id/preview/:eventId
func (h *ExplorerHandler) GetPreview(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	doc, err := sess.Preview(c.Param("eventId"))
	if err != nil {
		fail(c, "Event is not displayed in this session", err)
		return
	}
	response.Success(c, doc)
}

// GetEvent handles GET /api/v1/pages/:page/events/:eventId
func (h *ExplorerHandler) GetEvent(c *gin.Context) {
	res, err := h.service.Detail(c.Request.Context(), c.Param("page"), c.Param("eventId"))
	if err != nil {
		fail(c, "Page not found", err)
		return
	}
	if res.NotFound {
		response.NotFound(c, "not found")
		return
	}
	if res.IsError {
		response.Error(c, http.StatusBadGateway, "Failed to fetch event", errors.New(res.Error))
		return
	}
	response.Success(c, gin.H{
		"record":   res.Data,
		"document": present.Detail(res.Data),
	})
}
