package handler

import (
	"time"

	collectionapp "github.com/bms/backend/internal/application/collection"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CollectionHandler handles debt-collection API endpoints
type CollectionHandler struct {
	BaseHandler
	stageService      *collectionapp.StageService
	collectionService *collectionapp.CollectionService
}

// NewCollectionHandler creates a new CollectionHandler
func NewCollectionHandler(stageService *collectionapp.StageService, collectionService *collectionapp.CollectionService) *CollectionHandler {
	return &CollectionHandler{
		stageService:      stageService,
		collectionService: collectionService,
	}
}

// logListQuery holds the raw query parameters for the collection log
type logListQuery struct {
	ApartmentID string `form:"apartment_id" binding:"omitempty,uuid"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CreateStage creates a collection stage
func (h *CollectionHandler) CreateStage(c *gin.Context) {
	var req collectionapp.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	stage, err := h.stageService.CreateStage(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, stage)
}

// UpdateStage updates a collection stage's configuration
func (h *CollectionHandler) UpdateStage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid stage ID")
		return
	}

	var req collectionapp.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	stage, err := h.stageService.UpdateStage(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stage)
}

// DeleteStage removes a collection stage
func (h *CollectionHandler) DeleteStage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid stage ID")
		return
	}

	if err := h.stageService.DeleteStage(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListStages returns all collection stages ordered by stage number
func (h *CollectionHandler) ListStages(c *gin.Context) {
	stages, err := h.stageService.ListStages(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stages)
}

// ProcessCollections runs a debt-collection scan immediately
func (h *CollectionHandler) ProcessCollections(c *gin.Context) {
	result, err := h.collectionService.ProcessCollections(c.Request.Context(), time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListLog returns collection log entries, newest first
func (h *CollectionHandler) ListLog(c *gin.Context) {
	var query logListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	filter := collectionapp.LogListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.ApartmentID != "" {
		id, err := uuid.Parse(query.ApartmentID)
		if err != nil {
			h.BadRequest(c, "Invalid apartment ID")
			return
		}
		filter.ApartmentID = &id
	}

	entries, total, err := h.collectionService.ListLog(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, entries, total, query.Page, query.PageSize)
}

// RegisterRoutes registers collection routes
func (h *CollectionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	collection := rg.Group("/collection")
	{
		collection.GET("/stages", h.ListStages)
		collection.POST("/stages", h.CreateStage)
		collection.PUT("/stages/:id", h.UpdateStage)
		collection.DELETE("/stages/:id", h.DeleteStage)
		collection.POST("/process", h.ProcessCollections)
		collection.GET("/log", h.ListLog)
	}
}
