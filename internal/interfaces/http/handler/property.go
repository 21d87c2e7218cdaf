package handler

import (
	propertyapp "github.com/bms/backend/internal/application/property"
	"github.com/gin-gonic/gin"
)

// PropertyHandler handles building and apartment API endpoints
type PropertyHandler struct {
	BaseHandler
	service *propertyapp.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler
func NewPropertyHandler(service *propertyapp.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// CreateBuilding creates a building
func (h *PropertyHandler) CreateBuilding(c *gin.Context) {
	var req propertyapp.CreateBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	building, err := h.service.CreateBuilding(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, building)
}

// GetBuilding returns a building with its apartment count
func (h *PropertyHandler) GetBuilding(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	building, err := h.service.GetBuilding(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, building)
}

// ListBuildings returns all buildings
func (h *PropertyHandler) ListBuildings(c *gin.Context) {
	buildings, err := h.service.ListBuildings(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, buildings)
}

// CreateApartment creates an apartment within a building
func (h *PropertyHandler) CreateApartment(c *gin.Context) {
	var req propertyapp.CreateApartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	apartment, err := h.service.CreateApartment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, apartment)
}

// GetApartment returns an apartment
func (h *PropertyHandler) GetApartment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid apartment ID")
		return
	}

	apartment, err := h.service.GetApartment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, apartment)
}

// ListApartments returns a building's apartments ordered by unit number
func (h *PropertyHandler) ListApartments(c *gin.Context) {
	buildingID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	apartments, err := h.service.ListApartments(c.Request.Context(), buildingID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, apartments)
}

// UpdateSubscription changes an apartment's monthly subscription amount.
// The new amount applies from the next billing period.
func (h *PropertyHandler) UpdateSubscription(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid apartment ID")
		return
	}

	var req propertyapp.UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	apartment, err := h.service.UpdateSubscription(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, apartment)
}

// RegisterRoutes registers building and apartment routes
func (h *PropertyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	buildings := rg.Group("/buildings")
	{
		buildings.GET("", h.ListBuildings)
		buildings.POST("", h.CreateBuilding)
		buildings.GET("/:id", h.GetBuilding)
		buildings.GET("/:id/apartments", h.ListApartments)
	}

	apartments := rg.Group("/apartments")
	{
		apartments.POST("", h.CreateApartment)
		apartments.GET("/:id", h.GetApartment)
		apartments.PUT("/:id/subscription", h.UpdateSubscription)
	}
}
