// Package ledger keeps the product stock counters consistent with the
// immutable inward/outward movement tables. Every write is one
// transaction holding a row lock on the product, so two concurrent
// outwards can never both pass the stock check.
package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gms_backend/pkg/models"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrProductNotFound  = errors.New("product not found in this garage")
	ErrMovementNotFound = errors.New("stock movement not found")
)

// InsufficientStockError names the product and the shortfall
type InsufficientStockError struct {
	ProductName string
	Available   int
	Required    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, Required: %d",
		e.ProductName, e.Available, e.Required)
}

// Service is the inventory ledger
type Service struct {
	db *gorm.DB
}

// NewService constructs the ledger on the given handle
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// DB exposes the underlying handle for callers that compose reads
func (s *Service) DB() *gorm.DB {
	return s.db
}

// StatusFor derives the stock status from the counters
func StatusFor(currentStock, minStock int) models.StockStatus {
	switch {
	case currentStock == 0:
		return models.StockStatusOutOfStock
	case currentStock <= minStock:
		return models.StockStatusLow
	default:
		return models.StockStatusOK
	}
}

// RecordInward inserts an inward movement and raises the product counters
// in the same transaction.
func (s *Service) RecordInward(in *models.StockInward) error {
	if in.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		product, err := lockProduct(tx, in.GarageID, in.ProductID)
		if err != nil {
			return err
		}

		in.CorrelationID = uuid.NewString()
		if err := tx.Create(in).Error; err != nil {
			return fmt.Errorf("create inward movement: %w", err)
		}

		return applyCounters(tx, product, product.InwardStock+in.Quantity, product.OutwardStock)
	})
}

// RecordOutward inserts an outward movement after checking availability
// under the row lock. The check and the counter update commit together.
func (s *Service) RecordOutward(out *models.StockOutward) error {
	if out.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		product, err := lockProduct(tx, out.GarageID, out.ProductID)
		if err != nil {
			return err
		}

		if product.CurrentStock < out.Quantity {
			return &InsufficientStockError{
				ProductName: product.Name,
				Available:   product.CurrentStock,
				Required:    out.Quantity,
			}
		}

		out.CorrelationID = uuid.NewString()
		if err := tx.Create(out).Error; err != nil {
			return fmt.Errorf("create outward movement: %w", err)
		}

		return applyCounters(tx, product, product.InwardStock, product.OutwardStock+out.Quantity)
	})
}

// DeleteInward removes an inward movement as a correction, re-applying the
// counters. The correction is refused when it would leave the product
// oversold.
func (s *Service) DeleteInward(garageID, movementID int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var movement models.StockInward
		if err := tx.Where("id = ? AND garage_id = ?", movementID, garageID).First(&movement).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMovementNotFound
			}
			return err
		}

		product, err := lockProduct(tx, garageID, movement.ProductID)
		if err != nil {
			return err
		}

		newInward := product.InwardStock - movement.Quantity
		if newInward < product.OutwardStock {
			return &InsufficientStockError{
				ProductName: product.Name,
				Available:   product.CurrentStock,
				Required:    movement.Quantity,
			}
		}

		if err := tx.Delete(&movement).Error; err != nil {
			return fmt.Errorf("delete inward movement: %w", err)
		}
		return applyCounters(tx, product, newInward, product.OutwardStock)
	})
}

// DeleteOutward removes an outward movement as a correction, returning its
// quantity to stock.
func (s *Service) DeleteOutward(garageID, movementID int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var movement models.StockOutward
		if err := tx.Where("id = ? AND garage_id = ?", movementID, garageID).First(&movement).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMovementNotFound
			}
			return err
		}

		product, err := lockProduct(tx, garageID, movement.ProductID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&movement).Error; err != nil {
			return fmt.Errorf("delete outward movement: %w", err)
		}
		return applyCounters(tx, product, product.InwardStock, product.OutwardStock-movement.Quantity)
	})
}

// ProductFields are the caller-settable catalogue fields. Derived stock
// totals are never written through an upsert.
type ProductFields struct {
	Code             *string
	PartNumber       *string
	Model            *string
	CC               *string
	SubCategory      *string
	Description      *string
	Price            *float64
	GST              *float64
	Discount         *float64
	PurchasePrice    *float64
	MeasuringUnit    *string
	MinStock         *int
	PriceIncludesGST *bool
}

// UpsertProduct creates or updates a product identified by
// (garage, name, category, brand). On update only the supplied fields are
// written, and only when at least one of them actually changed.
func (s *Service) UpsertProduct(garageID int, name string, categoryID, brandID int, fields ProductFields) (*models.ProductCatalogue, bool, error) {
	var product models.ProductCatalogue
	created := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("garage_id = ? AND name = ? AND category_id = ? AND brand_id = ?",
			garageID, name, categoryID, brandID).First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			product = models.ProductCatalogue{
				GarageID:    garageID,
				Name:        name,
				CategoryID:  categoryID,
				BrandID:     brandID,
				StockStatus: models.StockStatusOutOfStock,
			}
			applyProductFields(&product, fields)
			product.StockStatus = StatusFor(product.CurrentStock, product.MinStock)
			created = true
			return tx.Create(&product).Error
		}
		if err != nil {
			return err
		}

		if changed := applyProductFields(&product, fields); !changed {
			return nil
		}
		product.StockStatus = StatusFor(product.CurrentStock, product.MinStock)
		return tx.Save(&product).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &product, created, nil
}

// applyProductFields is the diff-then-apply routine: it copies supplied
// values onto the row and reports whether anything changed.
func applyProductFields(p *models.ProductCatalogue, f ProductFields) bool {
	changed := false
	setString := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}

	setString(&p.Code, f.Code)
	setString(&p.PartNumber, f.PartNumber)
	setString(&p.Model, f.Model)
	setString(&p.CC, f.CC)
	setString(&p.SubCategory, f.SubCategory)
	setString(&p.Description, f.Description)
	setString(&p.MeasuringUnit, f.MeasuringUnit)
	setFloat(&p.Price, f.Price)
	setFloat(&p.GST, f.GST)
	setFloat(&p.Discount, f.Discount)
	setFloat(&p.PurchasePrice, f.PurchasePrice)
	if f.MinStock != nil && p.MinStock != *f.MinStock {
		p.MinStock = *f.MinStock
		changed = true
	}
	if f.PriceIncludesGST != nil && p.PriceIncludesGST != *f.PriceIncludesGST {
		p.PriceIncludesGST = *f.PriceIncludesGST
		changed = true
	}
	return changed
}

// lockProduct reads the product row under SELECT ... FOR UPDATE. sqlite
// serializes writers itself and rejects the clause, so it is skipped there.
func lockProduct(tx *gorm.DB, garageID, productID int) (*models.ProductCatalogue, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var product models.ProductCatalogue
	if err := q.Where("id = ? AND garage_id = ?", productID, garageID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// applyCounters persists the new counters and the recomputed status inside
// the caller's transaction.
func applyCounters(tx *gorm.DB, product *models.ProductCatalogue, inward, outward int) error {
	current := inward - outward
	if current < 0 {
		return fmt.Errorf("stock counters would go negative for %s", product.Name)
	}
	updates := map[string]interface{}{
		"inward_stock":  inward,
		"outward_stock": outward,
		"current_stock": current,
		"stock_status":  StatusFor(current, product.MinStock),
	}
	if err := tx.Model(&models.ProductCatalogue{}).Where("id = ?", product.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update stock counters: %w", err)
	}
	return nil
}
