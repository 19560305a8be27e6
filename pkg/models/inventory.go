package models

import (
	"time"
)

// Category of products, scoped to a garage
type Category struct {
	ID       int    `gorm:"primaryKey;autoIncrement" json:"id"`
	GarageID int    `gorm:"not null;index;uniqueIndex:idx_category_garage_name" json:"garageId"`
	Name     string `gorm:"not null;uniqueIndex:idx_category_garage_name" json:"name"`
}

// Brand of products, scoped to a garage
type Brand struct {
	ID       int    `gorm:"primaryKey;autoIncrement" json:"id"`
	GarageID int    `gorm:"not null;index;uniqueIndex:idx_brand_garage_name" json:"garageId"`
	Name     string `gorm:"not null;uniqueIndex:idx_brand_garage_name" json:"name"`
}

// Supplier of inward stock, scoped to a garage
type Supplier struct {
	ID       int     `gorm:"primaryKey;autoIncrement" json:"id"`
	GarageID int     `gorm:"not null;index" json:"garageId"`
	Name     string  `gorm:"not null" json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Address  *string `json:"address"`
}

// ProductCatalogue carries the derived stock counters for a product.
// (garage, name, category, brand) identifies a row for upsert.
type ProductCatalogue struct {
	ID               int         `gorm:"primaryKey;autoIncrement" json:"id"`
	GarageID         int         `gorm:"not null;index;uniqueIndex:idx_product_upsert_key" json:"garageId"`
	Name             string      `gorm:"not null;uniqueIndex:idx_product_upsert_key" json:"name"`
	CategoryID       int         `gorm:"not null;uniqueIndex:idx_product_upsert_key" json:"categoryId"`
	BrandID          int         `gorm:"not null;uniqueIndex:idx_product_upsert_key" json:"brandId"`
	Code             string      `json:"code"`
	PartNumber       string      `json:"partNumber"`
	Model            string      `json:"model"`
	CC               string      `json:"cc"`
	SubCategory      string      `json:"subCategory"`
	Description      string      `json:"description"`
	Price            float64     `gorm:"default:0" json:"price"`
	GST              float64     `gorm:"default:0" json:"gst"`
	Discount         float64     `gorm:"default:0" json:"discount"`
	PurchasePrice    float64     `gorm:"default:0" json:"purchasePrice"`
	MeasuringUnit    string      `json:"measuringUnit"`
	MinStock         int         `gorm:"default:0" json:"minStock"`
	PriceIncludesGST bool        `gorm:"default:false" json:"priceIncludesGst"`
	InwardStock      int         `gorm:"default:0" json:"inwardStock"`
	OutwardStock     int         `gorm:"default:0" json:"outwardStock"`
	CurrentStock     int         `gorm:"default:0" json:"currentStock"`
	StockStatus      StockStatus `gorm:"type:text;default:'OUT_OF_STOCK'" json:"stockStatus"`
	CreatedAt        time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`

	Garage   Garage   `gorm:"foreignKey:GarageID;references:ID" json:"garage,omitempty"`
	Category Category `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Brand    Brand    `gorm:"foreignKey:BrandID;references:ID" json:"brand,omitempty"`
}

// StockInward is an immutable inward movement
type StockInward struct {
	ID            int        `gorm:"primaryKey;autoIncrement" json:"id"`
	CorrelationID string     `gorm:"size:36;index" json:"correlationId"`
	GarageID      int        `gorm:"not null;index" json:"garageId"`
	ProductID     int        `gorm:"not null;index" json:"productId"`
	Quantity      int        `gorm:"not null" json:"quantity"`
	Rate          float64    `gorm:"default:0" json:"rate"`
	Discount      float64    `gorm:"default:0" json:"discount"`
	GST           float64    `gorm:"default:0" json:"gst"`
	TotalPrice    float64    `gorm:"default:0" json:"totalPrice"`
	SupplierID    *int       `gorm:"index" json:"supplierId"`
	InvoiceNo     string     `json:"invoiceNo"`
	InvoiceDate   *time.Time `json:"invoiceDate"`
	Location      string     `json:"location"`
	Rack          string     `json:"rack"`
	TrackExpiry   bool       `gorm:"default:false" json:"trackExpiry"`
	ExpiryDate    *time.Time `json:"expiryDate"`
	Warranty      string     `json:"warranty"`
	Remarks       string     `json:"remarks"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`

	Product  ProductCatalogue `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
	Supplier *Supplier        `gorm:"foreignKey:SupplierID;references:ID" json:"supplier,omitempty"`
}

// StockOutward is an immutable outward movement
type StockOutward struct {
	ID            int        `gorm:"primaryKey;autoIncrement" json:"id"`
	CorrelationID string     `gorm:"size:36;index" json:"correlationId"`
	GarageID      int        `gorm:"not null;index" json:"garageId"`
	ProductID     int        `gorm:"not null;index" json:"productId"`
	Quantity      int        `gorm:"not null" json:"quantity"`
	Rate          float64    `gorm:"default:0" json:"rate"`
	Discount      float64    `gorm:"default:0" json:"discount"`
	GST           float64    `gorm:"default:0" json:"gst"`
	TotalPrice    float64    `gorm:"default:0" json:"totalPrice"`
	IssuedTo      string     `gorm:"not null" json:"issuedTo"`
	IssuedDate    *time.Time `json:"issuedDate"`
	UsagePurpose  string     `json:"usagePurpose"`
	ReferenceDoc  string     `json:"referenceDocument"`
	Location      string     `json:"location"`
	Rack          string     `json:"rack"`
	Remarks       string     `json:"remarks"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`

	Product ProductCatalogue `gorm:"foreignKey:ProductID;references:ID" json:"product,omitempty"`
}
