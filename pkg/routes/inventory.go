package routes

import (
	"github.com/gin-gonic/gin"

	"gms_backend/pkg/audit"
	"gms_backend/pkg/controllers/inventory"
	"gms_backend/pkg/middleware"
	"gms_backend/pkg/models"
)

// RegisterInventoryRoutes registers all inventory routes behind the
// session guard and per-permission checks.
func RegisterInventoryRoutes(router *gin.RouterGroup, ctl *inventory.Controller, rec *audit.Recorder, guard gin.HandlerFunc) {
	inv := router.Group("/inventory")
	inv.Use(guard)
	{
		// Product catalogue
		products := inv.Group("/products")
		{
			products.GET("/", middleware.RequirePermission(rec, "Inventory", "Product Catalogue", models.PermissionView), ctl.ListProducts)
			products.POST("/", middleware.RequirePermission(rec, "Inventory", "Product Catalogue", models.PermissionAdd), ctl.UpsertProduct)
			products.POST("/bulk-upload", middleware.RequirePermission(rec, "Inventory", "Product Catalogue", models.PermissionAdd), ctl.BulkUploadProducts)
			products.GET("/export", middleware.RequirePermission(rec, "Inventory", "Product Catalogue", models.PermissionExport), ctl.ExportProductsCSV)
		}

		// Stock movements
		inward := inv.Group("/stock-inward")
		{
			inward.POST("/", middleware.RequirePermission(rec, "Inventory", "Stock Inward", models.PermissionAdd), ctl.RecordInward)
			inward.POST("/bulk-upload", middleware.RequirePermission(rec, "Inventory", "Stock Inward", models.PermissionAdd), ctl.BulkUploadInward)
			inward.DELETE("/:id", middleware.RequirePermission(rec, "Inventory", "Stock Inward", models.PermissionDelete), ctl.DeleteInward)
			inward.GET("/export", middleware.RequirePermission(rec, "Inventory", "Stock Inward", models.PermissionExport), ctl.ExportInwardCSV)
		}
		outward := inv.Group("/stock-outward")
		{
			outward.POST("/", middleware.RequirePermission(rec, "Inventory", "Stock Outward", models.PermissionAdd), ctl.RecordOutward)
			outward.POST("/bulk-upload", middleware.RequirePermission(rec, "Inventory", "Stock Outward", models.PermissionAdd), ctl.BulkUploadOutward)
			outward.DELETE("/:id", middleware.RequirePermission(rec, "Inventory", "Stock Outward", models.PermissionDelete), ctl.DeleteOutward)
			outward.GET("/export", middleware.RequirePermission(rec, "Inventory", "Stock Outward", models.PermissionExport), ctl.ExportOutwardCSV)
		}
		inv.GET("/stock-history", middleware.RequirePermission(rec, "Inventory", "Stock History", models.PermissionView), ctl.StockHistory)

		// Garage-scoped masters
		masters := inv.Group("/masters")
		{
			masters.GET("/categories", middleware.RequirePermission(rec, "Inventory", "Product Catalogue", models.PermissionView), ctl.ListCategories)
			masters.POST("/categories", middleware.RequirePermission(rec, "Inventory", "Product Catalogue", models.PermissionAdd), ctl.CreateCategory)
			masters.GET("/brands", middleware.RequirePermission(rec, "Inventory", "Product Catalogue", models.PermissionView), ctl.ListBrands)
			masters.POST("/brands", middleware.RequirePermission(rec, "Inventory", "Product Catalogue", models.PermissionAdd), ctl.CreateBrand)
			masters.GET("/suppliers", middleware.RequirePermission(rec, "Inventory", "Stock Inward", models.PermissionView), ctl.ListSuppliers)
			masters.POST("/suppliers", middleware.RequirePermission(rec, "Inventory", "Stock Inward", models.PermissionAdd), ctl.CreateSupplier)
		}
	}
}
