package itinerary

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-itinerary/internal/app/middleware"
)

// Day, stop and slot positions in paths and bodies are zero-based indices.

type moveRequest struct {
	Source  Slot `json:"source"`
	Target  Slot `json:"target"`
	Version int  `json:"version"`
}

type addStopRequest struct {
	Stop    Stop `json:"stop"`
	Index   *int `json:"index"`
	Version int  `json:"version"`
}

type updateStopRequest struct {
	Stop    Stop `json:"stop"`
	Version int  `json:"version"`
}

type startDragRequest struct {
	Source Slot `json:"source"`
}

type dragTargetRequest struct {
	Target *Slot `json:"target"`
}

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the itinerary endpoints on api.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/itineraries", h.Create)
	api.GET("/itineraries", h.List)
	api.GET("/itineraries/:id", h.Get)
	api.POST("/itineraries/:id/moves", h.MoveStop)
	api.POST("/itineraries/:id/drags", h.StartDrag)
	api.POST("/itineraries/:id/days/:day/optimize", h.OptimizeRoute)
	api.POST("/itineraries/:id/days/:day/stops", h.AddStop)
	api.PUT("/itineraries/:id/days/:day/stops/:stop", h.UpdateStop)
	api.DELETE("/itineraries/:id/days/:day/stops/:stop", h.DeleteStop)

	api.PUT("/drags/:session", h.PreviewDrag)
	api.POST("/drags/:session/end", h.EndDrag)

	api.POST("/annotate", h.Annotate)
}

func (h *Handler) Create(c *gin.Context) {
	var it Itinerary
	if err := c.ShouldBindJSON(&it); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := it.Validate(); err != nil {
		h.badRequest(c, err)
		return
	}

	rec, err := h.service.Create(c.Request.Context(), actorFrom(c), it)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	recs, err := h.service.List(c.Request.Context(), actorFrom(c), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if recs == nil {
		recs = []Record{}
	}
	c.JSON(http.StatusOK, gin.H{"itineraries": recs})
}

func (h *Handler) DeleteStop(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	day, ok := h.indexParam(c, "day")
	if !ok {
		return
	}
	stop, ok := h.indexParam(c, "stop")
	if !ok {
		return
	}
	version, ok := h.versionQuery(c)
	if !ok {
		return
	}

	res, err := h.service.DeleteStop(c.Request.Context(), actorFrom(c), id, version, day, stop)
	h.respond(c, res, err)
}

func (h *Handler) MoveStop(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.service.MoveStop(c.Request.Context(), actorFrom(c), id, req.Version, req.Source, req.Target)
	h.respond(c, res, err)
}

func (h *Handler) OptimizeRoute(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	day, ok := h.indexParam(c, "day")
	if !ok {
		return
	}
	version, ok := h.versionQuery(c)
	if !ok {
		return
	}

	res, err := h.service.OptimizeRoute(c.Request.Context(), actorFrom(c), id, version, day)
	h.respond(c, res, err)
}

func (h *Handler) AddStop(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	day, ok := h.indexParam(c, "day")
	if !ok {
		return
	}
	var req addStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := req.Stop.Validate(); err != nil {
		h.badRequest(c, err)
		return
	}
	index := math.MaxInt32
	if req.Index != nil {
		index = *req.Index
	}

	res, err := h.service.AddStop(c.Request.Context(), actorFrom(c), id, req.Version, day, index, req.Stop)
	h.respond(c, res, err)
}

func (h *Handler) UpdateStop(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	day, ok := h.indexParam(c, "day")
	if !ok {
		return
	}
	stop, ok := h.indexParam(c, "stop")
	if !ok {
		return
	}
	var req updateStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := req.Stop.Validate(); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.service.UpdateStop(c.Request.Context(), actorFrom(c), id, req.Version, day, stop, req.Stop)
	h.respond(c, res, err)
}

func (h *Handler) StartDrag(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req startDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	view, err := h.service.StartDrag(c.Request.Context(), actorFrom(c), id, req.Source)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) PreviewDrag(c *gin.Context) {
	session, ok := h.uuidParam(c, "session")
	if !ok {
		return
	}
	var req dragTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	view, err := h.service.PreviewDrag(c.Request.Context(), actorFrom(c), session, req.Target)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) EndDrag(c *gin.Context) {
	session, ok := h.uuidParam(c, "session")
	if !ok {
		return
	}
	var req dragTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	out, err := h.service.EndDrag(c.Request.Context(), actorFrom(c), session, req.Target)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Annotate computes times for a posted itinerary without storing it.
func (h *Handler) Annotate(c *gin.Context) {
	var it Itinerary
	if err := c.ShouldBindJSON(&it); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := it.Validate(); err != nil {
		h.badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.service.Annotate(it, c.Query("mode") == "reannotate"))
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		UserID:   middleware.GetUserIDFromContext(c),
		Language: c.GetHeader("Accept-Language"),
	}
}

func (h *Handler) respond(c *gin.Context, res *Result, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, ErrInvalidPosition):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.badRequest(c, errors.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) indexParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 0 {
		h.badRequest(c, errors.New("invalid "+name))
		return 0, false
	}
	return v, true
}

func (h *Handler) versionQuery(c *gin.Context) (int, bool) {
	raw := c.Query("version")
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		h.badRequest(c, errors.New("invalid version"))
		return 0, false
	}
	return v, true
}
