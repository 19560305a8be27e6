package inventory

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gms_backend/pkg/audit"
	"gms_backend/pkg/importer"
	"gms_backend/pkg/ledger"
	"gms_backend/pkg/middleware"
	"gms_backend/pkg/models"
	"gms_backend/pkg/session"
	"gms_backend/pkg/utils"
)

const (
	tagProducts      = "inventory.products"
	tagProductExport = "inventory.products.export"
)

// Controller handles the product catalogue and stock movements
type Controller struct {
	DB       *gorm.DB
	Ledger   *ledger.Service
	Importer *importer.Importer
	Audit    *audit.Recorder
}

// NewController wires the inventory controller
func NewController(db *gorm.DB, ledgerSvc *ledger.Service, imp *importer.Importer, recorder *audit.Recorder) *Controller {
	return &Controller{DB: db, Ledger: ledgerSvc, Importer: imp, Audit: recorder}
}

// productRequest carries the caller-settable catalogue fields
type productRequest struct {
	Name             string   `json:"name" binding:"required"`
	CategoryID       int      `json:"categoryId" binding:"required"`
	BrandID          int      `json:"brandId" binding:"required"`
	Code             *string  `json:"code"`
	PartNumber       *string  `json:"partNumber"`
	Model            *string  `json:"model"`
	CC               *string  `json:"cc"`
	SubCategory      *string  `json:"subCategory"`
	Description      *string  `json:"description"`
	Price            *float64 `json:"price"`
	GST              *float64 `json:"gst"`
	Discount         *float64 `json:"discount"`
	PurchasePrice    *float64 `json:"purchasePrice"`
	MeasuringUnit    *string  `json:"measuringUnit"`
	MinStock         *int     `json:"minStock"`
	PriceIncludesGST *bool    `json:"priceIncludesGst"`
}

func (r *productRequest) fields() ledger.ProductFields {
	return ledger.ProductFields{
		Code:             r.Code,
		PartNumber:       r.PartNumber,
		Model:            r.Model,
		CC:               r.CC,
		SubCategory:      r.SubCategory,
		Description:      r.Description,
		Price:            r.Price,
		GST:              r.GST,
		Discount:         r.Discount,
		PurchasePrice:    r.PurchasePrice,
		MeasuringUnit:    r.MeasuringUnit,
		MinStock:         r.MinStock,
		PriceIncludesGST: r.PriceIncludesGST,
	}
}

// ListProducts returns the catalogue for the active garage
func (ctl *Controller) ListProducts(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var products []models.ProductCatalogue
	q := middleware.ScopeToGarages(ctl.DB.Model(&models.ProductCatalogue{}), ctx)
	if err := q.Where("garage_id = ?", garageID).
		Preload("Category").Preload("Brand").
		Order("name").Find(&products).Error; err != nil {
		utils.InternalError(c, "Failed to fetch products")
		return
	}

	utils.OK(c, "", gin.H{"products": products})
}

// UpsertProduct creates or updates a product keyed by
// (garage, name, category, brand)
func (ctl *Controller) UpsertProduct(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Name, categoryId and brandId are required")
		return
	}

	if err := ctl.assertCategoryAndBrand(garageID, req.CategoryID, req.BrandID); err != nil {
		ctl.Audit.Record(ctx.Email, "Product upsert refused: "+err.Error(), tagProducts, http.StatusBadRequest)
		utils.BadRequest(c, err.Error())
		return
	}

	product, created, err := ctl.Ledger.UpsertProduct(garageID, req.Name, req.CategoryID, req.BrandID, req.fields())
	if err != nil {
		ctl.Audit.Record(ctx.Email, "Product upsert failed", tagProducts, http.StatusInternalServerError)
		utils.InternalError(c, "Failed to save product")
		return
	}

	if created {
		ctl.Audit.Record(ctx.Email, "Created product "+product.Name, tagProducts, http.StatusCreated)
		utils.Created(c, "Product created successfully", product)
		return
	}
	ctl.Audit.Record(ctx.Email, "Updated product "+product.Name, tagProducts, http.StatusOK)
	utils.OK(c, "Product updated successfully", product)
}

// ExportProductsCSV downloads the catalogue with the derived columns
func (ctl *Controller) ExportProductsCSV(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var products []models.ProductCatalogue
	if err := ctl.DB.Where("garage_id = ?", garageID).
		Preload("Category").Preload("Brand").
		Order("name").Find(&products).Error; err != nil {
		utils.InternalError(c, "Failed to fetch products")
		return
	}

	header := []string{
		"name", "category_id", "brand_id", "code", "part_number", "model", "cc",
		"sub_category", "description", "price", "gst", "discount",
		"purchase_price", "measuring_unit", "inward_stock", "outward_stock",
		"current_stock", "stock_status", "created_at", "updated_at",
	}
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			p.Name,
			strconv.Itoa(p.CategoryID),
			strconv.Itoa(p.BrandID),
			p.Code,
			p.PartNumber,
			p.Model,
			p.CC,
			p.SubCategory,
			p.Description,
			formatFloat(p.Price),
			formatFloat(p.GST),
			formatFloat(p.Discount),
			formatFloat(p.PurchasePrice),
			p.MeasuringUnit,
			strconv.Itoa(p.InwardStock),
			strconv.Itoa(p.OutwardStock),
			strconv.Itoa(p.CurrentStock),
			string(p.StockStatus),
			p.CreatedAt.Format("2006-01-02 15:04:05"),
			p.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	ctl.Audit.Record(ctx.Email, "Exported product catalogue", tagProductExport, http.StatusOK)
	writeCSV(c, fmt.Sprintf("products_garage_%d.csv", garageID), header, rows)
}

// assertCategoryAndBrand resolves the foreign keys inside the garage scope
func (ctl *Controller) assertCategoryAndBrand(garageID, categoryID, brandID int) error {
	var count int64
	ctl.DB.Model(&models.Category{}).Where("id = ? AND garage_id = ?", categoryID, garageID).Count(&count)
	if count == 0 {
		return fmt.Errorf("category %d not found in this garage", categoryID)
	}
	ctl.DB.Model(&models.Brand{}).Where("id = ? AND garage_id = ?", brandID, garageID).Count(&count)
	if count == 0 {
		return fmt.Errorf("brand %d not found in this garage", brandID)
	}
	return nil
}

// activeGarage pulls the session context and its selected garage, replying
// with the proper error when either is missing.
func (ctl *Controller) activeGarage(c *gin.Context) (*session.Context, int, bool) {
	ctx, ok := session.FromContext(c)
	if !ok {
		utils.Unauthorized(c, "Please login to continue.")
		return nil, 0, false
	}
	garageID, err := middleware.ActiveGarage(ctx)
	if err != nil {
		utils.BadRequest(c, "No active garage selected.")
		return nil, 0, false
	}
	return ctx, garageID, true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
