package inventory

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gms_backend/pkg/ledger"
	"gms_backend/pkg/models"
	"gms_backend/pkg/utils"
)

const (
	tagInward        = "inventory.stock_inward"
	tagOutward       = "inventory.stock_outward"
	tagStockHistory  = "inventory.stock_history"
	tagInwardExport  = "inventory.stock_inward.export"
	tagOutwardExport = "inventory.stock_outward.export"
)

// RecordInward creates an inward movement and raises the stock counters
func (ctl *Controller) RecordInward(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var req struct {
		ProductID   int     `json:"productId" binding:"required"`
		Quantity    int     `json:"quantity" binding:"required"`
		Rate        float64 `json:"rate"`
		Discount    float64 `json:"discount"`
		GST         float64 `json:"gst"`
		TotalPrice  float64 `json:"totalPrice"`
		SupplierID  *int    `json:"supplierId"`
		InvoiceNo   string  `json:"invoiceNo"`
		InvoiceDate string  `json:"invoiceDate"`
		Location    string  `json:"location"`
		Rack        string  `json:"rack"`
		TrackExpiry bool    `json:"trackExpiry"`
		ExpiryDate  string  `json:"expiryDate"`
		Warranty    string  `json:"warranty"`
		Remarks     string  `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "productId and quantity are required")
		return
	}

	invoiceDate, err := parseOptionalDate(req.InvoiceDate)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	expiryDate, err := parseOptionalDate(req.ExpiryDate)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	movement := models.StockInward{
		GarageID:    garageID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		Rate:        req.Rate,
		Discount:    req.Discount,
		GST:         req.GST,
		TotalPrice:  req.TotalPrice,
		SupplierID:  req.SupplierID,
		InvoiceNo:   req.InvoiceNo,
		InvoiceDate: invoiceDate,
		Location:    req.Location,
		Rack:        req.Rack,
		TrackExpiry: req.TrackExpiry,
		ExpiryDate:  expiryDate,
		Warranty:    req.Warranty,
		Remarks:     req.Remarks,
	}

	if err := ctl.Ledger.RecordInward(&movement); err != nil {
		ctl.replyLedgerError(c, ctx.Email, "Inward entry failed", tagInward, err)
		return
	}

	ctl.Audit.Record(ctx.Email, fmt.Sprintf("Inward %d units of product %d", req.Quantity, req.ProductID), tagInward, http.StatusCreated)
	utils.Created(c, "Stock inward recorded successfully", movement)
}

// RecordOutward creates an outward movement; the ledger refuses it when
// current stock cannot cover the quantity.
func (ctl *Controller) RecordOutward(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var req struct {
		ProductID    int     `json:"productId" binding:"required"`
		Quantity     int     `json:"quantity" binding:"required"`
		Rate         float64 `json:"rate"`
		Discount     float64 `json:"discount"`
		GST          float64 `json:"gst"`
		TotalPrice   float64 `json:"totalPrice"`
		IssuedTo     string  `json:"issuedTo" binding:"required"`
		IssuedDate   string  `json:"issuedDate"`
		UsagePurpose string  `json:"usagePurpose"`
		ReferenceDoc string  `json:"referenceDocument"`
		Location     string  `json:"location"`
		Rack         string  `json:"rack"`
		Remarks      string  `json:"remarks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "productId, quantity and issuedTo are required")
		return
	}

	issuedDate, err := parseOptionalDate(req.IssuedDate)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	movement := models.StockOutward{
		GarageID:     garageID,
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		Rate:         req.Rate,
		Discount:     req.Discount,
		GST:          req.GST,
		TotalPrice:   req.TotalPrice,
		IssuedTo:     req.IssuedTo,
		IssuedDate:   issuedDate,
		UsagePurpose: req.UsagePurpose,
		ReferenceDoc: req.ReferenceDoc,
		Location:     req.Location,
		Rack:         req.Rack,
		Remarks:      req.Remarks,
	}

	if err := ctl.Ledger.RecordOutward(&movement); err != nil {
		ctl.replyLedgerError(c, ctx.Email, "Outward entry failed", tagOutward, err)
		return
	}

	ctl.Audit.Record(ctx.Email, fmt.Sprintf("Outward %d units of product %d", req.Quantity, req.ProductID), tagOutward, http.StatusCreated)
	utils.Created(c, "Stock outward recorded successfully", movement)
}

// DeleteInward removes an inward row as a correction
func (ctl *Controller) DeleteInward(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	movementID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Provide a valid movement id")
		return
	}

	if err := ctl.Ledger.DeleteInward(garageID, movementID); err != nil {
		ctl.replyLedgerError(c, ctx.Email, "Inward correction failed", tagInward, err)
		return
	}

	ctl.Audit.Record(ctx.Email, fmt.Sprintf("Deleted inward movement %d", movementID), tagInward, http.StatusOK)
	utils.OK(c, "Stock inward entry removed", nil)
}

// DeleteOutward removes an outward row as a correction
func (ctl *Controller) DeleteOutward(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	movementID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Provide a valid movement id")
		return
	}

	if err := ctl.Ledger.DeleteOutward(garageID, movementID); err != nil {
		ctl.replyLedgerError(c, ctx.Email, "Outward correction failed", tagOutward, err)
		return
	}

	ctl.Audit.Record(ctx.Email, fmt.Sprintf("Deleted outward movement %d", movementID), tagOutward, http.StatusOK)
	utils.OK(c, "Stock outward entry removed", nil)
}

// StockHistory lists movements in a date range, defaulting to the session's
// reporting window when none is given.
func (ctl *Controller) StockHistory(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	fromStr := c.DefaultQuery("startDate", ctx.RangeFrom)
	toStr := c.DefaultQuery("endDate", ctx.RangeTo)

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		utils.BadRequest(c, "Invalid startDate (expected YYYY-MM-DD)")
		return
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		utils.BadRequest(c, "Invalid endDate (expected YYYY-MM-DD)")
		return
	}
	to = to.Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	var inward []models.StockInward
	if err := ctl.DB.Where("garage_id = ? AND created_at >= ? AND created_at <= ?", garageID, from, to).
		Preload("Product").Preload("Supplier").
		Order("created_at DESC").Find(&inward).Error; err != nil {
		utils.InternalError(c, "Failed to fetch stock history")
		return
	}

	var outward []models.StockOutward
	if err := ctl.DB.Where("garage_id = ? AND created_at >= ? AND created_at <= ?", garageID, from, to).
		Preload("Product").
		Order("created_at DESC").Find(&outward).Error; err != nil {
		utils.InternalError(c, "Failed to fetch stock history")
		return
	}

	ctl.Audit.Record(ctx.Email, "Viewed stock history", tagStockHistory, http.StatusOK)
	utils.OK(c, "Stock history fetched", gin.H{
		"inward":  inward,
		"outward": outward,
	})
}

// ExportInwardCSV downloads inward movements for the active garage
func (ctl *Controller) ExportInwardCSV(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var movements []models.StockInward
	if err := ctl.DB.Where("garage_id = ?", garageID).
		Preload("Product").Order("created_at").Find(&movements).Error; err != nil {
		utils.InternalError(c, "Failed to fetch inward movements")
		return
	}

	header := []string{
		"product_id", "product_name", "quantity", "rate", "discount", "gst",
		"total_price", "supplier_id", "invoice_no", "invoice_date",
		"location", "rack", "track_expiry", "expiry_date", "warranty",
		"remarks", "created_at",
	}
	rows := make([][]string, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, []string{
			strconv.Itoa(m.ProductID),
			m.Product.Name,
			strconv.Itoa(m.Quantity),
			formatFloat(m.Rate),
			formatFloat(m.Discount),
			formatFloat(m.GST),
			formatFloat(m.TotalPrice),
			formatIntPtr(m.SupplierID),
			m.InvoiceNo,
			formatDatePtr(m.InvoiceDate),
			m.Location,
			m.Rack,
			strconv.FormatBool(m.TrackExpiry),
			formatDatePtr(m.ExpiryDate),
			m.Warranty,
			m.Remarks,
			m.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	ctl.Audit.Record(ctx.Email, "Exported inward movements", tagInwardExport, http.StatusOK)
	writeCSV(c, fmt.Sprintf("stock_inward_garage_%d.csv", garageID), header, rows)
}

// ExportOutwardCSV downloads outward movements for the active garage
func (ctl *Controller) ExportOutwardCSV(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	var movements []models.StockOutward
	if err := ctl.DB.Where("garage_id = ?", garageID).
		Preload("Product").Order("created_at").Find(&movements).Error; err != nil {
		utils.InternalError(c, "Failed to fetch outward movements")
		return
	}

	header := []string{
		"product_id", "product_name", "issued_to", "quantity", "rate",
		"discount", "gst", "total_price", "issued_date", "usage_purpose",
		"reference_document", "location", "rack", "remarks", "created_at",
	}
	rows := make([][]string, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, []string{
			strconv.Itoa(m.ProductID),
			m.Product.Name,
			m.IssuedTo,
			strconv.Itoa(m.Quantity),
			formatFloat(m.Rate),
			formatFloat(m.Discount),
			formatFloat(m.GST),
			formatFloat(m.TotalPrice),
			formatDatePtr(m.IssuedDate),
			m.UsagePurpose,
			m.ReferenceDoc,
			m.Location,
			m.Rack,
			m.Remarks,
			m.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	ctl.Audit.Record(ctx.Email, "Exported outward movements", tagOutwardExport, http.StatusOK)
	writeCSV(c, fmt.Sprintf("stock_outward_garage_%d.csv", garageID), header, rows)
}

// replyLedgerError maps ledger failures to their response and audit codes
func (ctl *Controller) replyLedgerError(c *gin.Context, actor, action, tag string, err error) {
	var insufficient *ledger.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		ctl.Audit.Record(actor, action+": "+err.Error(), tag, http.StatusBadRequest)
		utils.BadRequest(c, err.Error())
	case errors.Is(err, ledger.ErrInvalidQuantity):
		ctl.Audit.Record(actor, action+": "+err.Error(), tag, http.StatusBadRequest)
		utils.BadRequest(c, "Quantity must be greater than zero.")
	case errors.Is(err, ledger.ErrProductNotFound):
		ctl.Audit.Record(actor, action+": "+err.Error(), tag, http.StatusNotFound)
		utils.NotFound(c, "Product not found in this garage.")
	case errors.Is(err, ledger.ErrMovementNotFound):
		ctl.Audit.Record(actor, action+": "+err.Error(), tag, http.StatusNotFound)
		utils.NotFound(c, "Stock movement not found.")
	default:
		ctl.Audit.Record(actor, action, tag, http.StatusInternalServerError)
		utils.InternalError(c, "Something went wrong. Please try again.")
	}
}

func parseOptionalDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("Invalid date %s (expected YYYY-MM-DD)", v)
	}
	return &t, nil
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
