package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gms_backend/pkg/models"
	"gms_backend/pkg/utils"
)

const (
	tagCategories = "inventory.categories"
	tagBrands     = "inventory.brands"
	tagSuppliers  = "inventory.suppliers"
)

func (ctl *Controller) ListCategories(c *gin.Context) {
	_, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var categories []models.Category
	if err := ctl.DB.Where("garage_id = ?", garageID).Order("name").Find(&categories).Error; err != nil {
		utils.InternalError(c, "Could not load categories.")
		return
	}
	utils.OK(c, "Categories fetched successfully.", categories)
}

func (ctl *Controller) CreateCategory(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Category name is required.")
		return
	}

	category := models.Category{GarageID: garageID, Name: req.Name}
	if err := ctl.DB.Create(&category).Error; err != nil {
		utils.BadRequest(c, "A category with this name already exists in this garage.")
		return
	}

	ctl.Audit.Record(ctx.Email, "Created category "+category.Name, tagCategories, http.StatusCreated)
	utils.Created(c, "Category created successfully.", category)
}

func (ctl *Controller) ListBrands(c *gin.Context) {
	_, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var brands []models.Brand
	if err := ctl.DB.Where("garage_id = ?", garageID).Order("name").Find(&brands).Error; err != nil {
		utils.InternalError(c, "Could not load brands.")
		return
	}
	utils.OK(c, "Brands fetched successfully.", brands)
}

func (ctl *Controller) CreateBrand(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Brand name is required.")
		return
	}

	brand := models.Brand{GarageID: garageID, Name: req.Name}
	if err := ctl.DB.Create(&brand).Error; err != nil {
		utils.BadRequest(c, "A brand with this name already exists in this garage.")
		return
	}

	ctl.Audit.Record(ctx.Email, "Created brand "+brand.Name, tagBrands, http.StatusCreated)
	utils.Created(c, "Brand created successfully.", brand)
}

func (ctl *Controller) ListSuppliers(c *gin.Context) {
	_, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var suppliers []models.Supplier
	if err := ctl.DB.Where("garage_id = ?", garageID).Order("name").Find(&suppliers).Error; err != nil {
		utils.InternalError(c, "Could not load suppliers.")
		return
	}
	utils.OK(c, "Suppliers fetched successfully.", suppliers)
}

func (ctl *Controller) CreateSupplier(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var req struct {
		Name    string  `json:"name" binding:"required"`
		Phone   *string `json:"phone"`
		Email   *string `json:"email"`
		Address *string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Supplier name is required.")
		return
	}

	supplier := models.Supplier{
		GarageID: garageID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
	}
	if err := ctl.DB.Create(&supplier).Error; err != nil {
		utils.InternalError(c, "Could not create supplier.")
		return
	}

	ctl.Audit.Record(ctx.Email, "Created supplier "+supplier.Name, tagSuppliers, http.StatusCreated)
	utils.Created(c, "Supplier created successfully.", supplier)
}
