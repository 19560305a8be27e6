package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gms_backend/pkg/middleware"
	"gms_backend/pkg/models"
	"gms_backend/pkg/session"
	"gms_backend/pkg/utils"
)

const (
	tagCities  = "admin.cities"
	tagGarages = "admin.garages"
)

func (ctl *Controller) ListCities(c *gin.Context) {
	ctx, _ := session.FromContext(c)

	q := ctl.DB.Model(&models.City{}).Order("name")
	if ctx.UserType == models.UserTypeAdmin && len(ctx.CityIDs) > 0 {
		q = q.Where("id IN ?", ctx.CityIDs)
	}

	var cities []models.City
	if err := q.Find(&cities).Error; err != nil {
		utils.InternalError(c, "Could not load cities.")
		return
	}
	utils.OK(c, "Cities fetched successfully.", cities)
}

func (ctl *Controller) CreateCity(c *gin.Context) {
	ctx, _ := session.FromContext(c)

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "City name is required.")
		return
	}

	city := models.City{Name: req.Name}
	if err := ctl.DB.Create(&city).Error; err != nil {
		utils.BadRequest(c, "A city with this name already exists.")
		return
	}

	ctl.Audit.Record(ctx.Email, "Created city "+city.Name, tagCities, http.StatusCreated)
	utils.Created(c, "City created successfully.", city)
}

// ListGarages returns the garages the caller may act on, in the same
// order garage selection uses.
func (ctl *Controller) ListGarages(c *gin.Context) {
	ctx, _ := session.FromContext(c)

	q := middleware.ScopeToGarages(ctl.DB.Model(&models.Garage{}), ctx).
		Preload("City").
		Order("id")

	var garages []models.Garage
	if err := q.Find(&garages).Error; err != nil {
		utils.InternalError(c, "Could not load garages.")
		return
	}
	utils.OK(c, "Garages fetched successfully.", garages)
}

func (ctl *Controller) CreateGarage(c *gin.Context) {
	ctx, _ := session.FromContext(c)

	var req struct {
		Name       string  `json:"name" binding:"required"`
		CityID     int     `json:"city_id" binding:"required"`
		BusinessID *int    `json:"business_id"`
		Address    *string `json:"address"`
		Phone      *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Garage name and city_id are required.")
		return
	}

	var city models.City
	if err := ctl.DB.First(&city, req.CityID).Error; err != nil {
		utils.NotFound(c, "City not found.")
		return
	}

	garage := models.Garage{
		Name:       req.Name,
		CityID:     req.CityID,
		BusinessID: req.BusinessID,
		Address:    req.Address,
		Phone:      req.Phone,
		IsActive:   true,
	}
	if err := ctl.DB.Create(&garage).Error; err != nil {
		utils.InternalError(c, "Could not create garage.")
		return
	}

	ctl.Audit.Record(ctx.Email, "Created garage "+garage.Name, tagGarages, http.StatusCreated)
	utils.Created(c, "Garage created successfully.", garage)
}
