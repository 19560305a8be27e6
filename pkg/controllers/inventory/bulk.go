package inventory

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"gms_backend/pkg/importer"
	"gms_backend/pkg/ledger"
	"gms_backend/pkg/models"
	"gms_backend/pkg/utils"
)

const (
	tagProductBulk = "inventory.products.bulk_upload"
	tagInwardBulk  = "inventory.stock_inward.bulk_upload"
	tagOutwardBulk = "inventory.stock_outward.bulk_upload"
)

var productSchema = importer.Schema{
	Name:     "product",
	Required: []string{"name", "category_id", "brand_id"},
	Optional: []string{
		"code", "part_number", "model", "cc", "sub_category", "description",
		"price", "gst", "discount", "purchase_price", "measuring_unit",
	},
}

var outwardSchema = importer.Schema{
	Name:     "stockoutward",
	Required: []string{"product_id", "issued_to"},
	Optional: []string{
		"quantity", "rate", "discount", "gst", "total_price", "issued_date",
		"usage_purpose", "reference_document", "location", "rack", "remarks",
	},
}

var inwardSchema = importer.Schema{
	Name:     "stockinward",
	Required: []string{"product_id", "quantity"},
	Optional: []string{
		"rate", "discount", "gst", "total_price", "supplier_id", "invoice_no",
		"invoice_date", "location", "rack", "warranty", "remarks",
	},
}

// BulkUploadProducts ingests a product catalogue file row by row
func (ctl *Controller) BulkUploadProducts(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	file, _ := c.FormFile("file")
	res, _, err := ctl.Importer.Ingest(file, garageID, productSchema, func(row importer.Row) error {
		categoryID, err := row.Int("category_id")
		if err != nil {
			return err
		}
		brandID, err := row.Int("brand_id")
		if err != nil {
			return err
		}
		if err := ctl.assertCategoryAndBrand(garageID, categoryID, brandID); err != nil {
			return err
		}

		fields, err := productFieldsFromRow(row)
		if err != nil {
			return err
		}
		_, _, err = ctl.Ledger.UpsertProduct(garageID, row.Get("name"), categoryID, brandID, fields)
		return err
	})
	if err != nil {
		ctl.Audit.Record(ctx.Email, "Product bulk upload rejected: "+err.Error(), tagProductBulk, http.StatusBadRequest)
		utils.BadRequest(c, err.Error())
		return
	}

	summary := res.Summary("products")
	ctl.Audit.Record(ctx.Email, summary, tagProductBulk, http.StatusOK)
	utils.OK(c, summary, gin.H{
		"success": res.Success,
		"failed":  res.Failed,
		"errors":  res.Errors,
	})
}

// BulkUploadOutward ingests outward movements; each row goes through the
// ledger, so the no-oversell rule holds row by row.
func (ctl *Controller) BulkUploadOutward(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	file, _ := c.FormFile("file")
	res, _, err := ctl.Importer.Ingest(file, garageID, outwardSchema, func(row importer.Row) error {
		productID, err := row.Int("product_id")
		if err != nil {
			return err
		}
		quantity, err := row.Int("quantity")
		if err != nil {
			return err
		}
		rate, err := row.Float("rate")
		if err != nil {
			return err
		}
		discount, err := row.Float("discount")
		if err != nil {
			return err
		}
		gst, err := row.Float("gst")
		if err != nil {
			return err
		}
		totalPrice, err := row.Float("total_price")
		if err != nil {
			return err
		}
		issuedDate, err := row.Date("issued_date")
		if err != nil {
			return err
		}

		movement := models.StockOutward{
			GarageID:     garageID,
			ProductID:    productID,
			Quantity:     quantity,
			Rate:         rate,
			Discount:     discount,
			GST:          gst,
			TotalPrice:   totalPrice,
			IssuedTo:     row.Get("issued_to"),
			IssuedDate:   issuedDate,
			UsagePurpose: row.Get("usage_purpose"),
			ReferenceDoc: row.Get("reference_document"),
			Location:     row.Get("location"),
			Rack:         row.Get("rack"),
			Remarks:      row.Get("remarks"),
		}
		return friendlyLedgerError(ctl.Ledger.RecordOutward(&movement))
	})
	if err != nil {
		ctl.Audit.Record(ctx.Email, "Outward bulk upload rejected: "+err.Error(), tagOutwardBulk, http.StatusBadRequest)
		utils.BadRequest(c, err.Error())
		return
	}

	summary := res.Summary("outward entries")
	ctl.Audit.Record(ctx.Email, summary, tagOutwardBulk, http.StatusOK)
	utils.OK(c, summary, gin.H{
		"success": res.Success,
		"failed":  res.Failed,
		"errors":  res.Errors,
	})
}

// BulkUploadInward ingests inward movements
func (ctl *Controller) BulkUploadInward(c *gin.Context) {
	ctx, garageID, ok := ctl.activeGarage(c)
	if !ok {
		return
	}

	file, _ := c.FormFile("file")
	res, _, err := ctl.Importer.Ingest(file, garageID, inwardSchema, func(row importer.Row) error {
		productID, err := row.Int("product_id")
		if err != nil {
			return err
		}
		quantity, err := row.Int("quantity")
		if err != nil {
			return err
		}
		rate, err := row.Float("rate")
		if err != nil {
			return err
		}
		discount, err := row.Float("discount")
		if err != nil {
			return err
		}
		gst, err := row.Float("gst")
		if err != nil {
			return err
		}
		totalPrice, err := row.Float("total_price")
		if err != nil {
			return err
		}
		invoiceDate, err := row.Date("invoice_date")
		if err != nil {
			return err
		}

		var supplierID *int
		if id, err := row.Int("supplier_id"); err != nil {
			return err
		} else if id > 0 {
			var count int64
			ctl.DB.Model(&models.Supplier{}).Where("id = ? AND garage_id = ?", id, garageID).Count(&count)
			if count == 0 {
				return fmt.Errorf("supplier %d not found in this garage", id)
			}
			supplierID = &id
		}

		movement := models.StockInward{
			GarageID:    garageID,
			ProductID:   productID,
			Quantity:    quantity,
			Rate:        rate,
			Discount:    discount,
			GST:         gst,
			TotalPrice:  totalPrice,
			SupplierID:  supplierID,
			InvoiceNo:   row.Get("invoice_no"),
			InvoiceDate: invoiceDate,
			Location:    row.Get("location"),
			Rack:        row.Get("rack"),
			Warranty:    row.Get("warranty"),
			Remarks:     row.Get("remarks"),
		}
		return friendlyLedgerError(ctl.Ledger.RecordInward(&movement))
	})
	if err != nil {
		ctl.Audit.Record(ctx.Email, "Inward bulk upload rejected: "+err.Error(), tagInwardBulk, http.StatusBadRequest)
		utils.BadRequest(c, err.Error())
		return
	}

	summary := res.Summary("inward entries")
	ctl.Audit.Record(ctx.Email, summary, tagInwardBulk, http.StatusOK)
	utils.OK(c, summary, gin.H{
		"success": res.Success,
		"failed":  res.Failed,
		"errors":  res.Errors,
	})
}

func productFieldsFromRow(row importer.Row) (ledger.ProductFields, error) {
	var fields ledger.ProductFields

	strPtr := func(col string) *string {
		v := row.Get(col)
		return &v
	}
	fields.Code = strPtr("code")
	fields.PartNumber = strPtr("part_number")
	fields.Model = strPtr("model")
	fields.CC = strPtr("cc")
	fields.SubCategory = strPtr("sub_category")
	fields.Description = strPtr("description")
	fields.MeasuringUnit = strPtr("measuring_unit")

	price, err := row.Float("price")
	if err != nil {
		return fields, err
	}
	gst, err := row.Float("gst")
	if err != nil {
		return fields, err
	}
	discount, err := row.Float("discount")
	if err != nil {
		return fields, err
	}
	purchasePrice, err := row.Float("purchase_price")
	if err != nil {
		return fields, err
	}
	fields.Price = &price
	fields.GST = &gst
	fields.Discount = &discount
	fields.PurchasePrice = &purchasePrice

	return fields, nil
}

// friendlyLedgerError rewrites sentinel ledger errors into the row-level
// messages shown in the upload summary.
func friendlyLedgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return errors.New("quantity must be greater than zero")
	case errors.Is(err, ledger.ErrProductNotFound):
		return errors.New("product not found in this garage")
	default:
		return err
	}
}
