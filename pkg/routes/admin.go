package routes

import (
	"github.com/gin-gonic/gin"

	"gms_backend/pkg/audit"
	"gms_backend/pkg/controllers/admin"
	"gms_backend/pkg/middleware"
	"gms_backend/pkg/models"
)

// RegisterAdminRoutes registers the role editor, tenancy masters and the
// audit log viewer.
func RegisterAdminRoutes(router *gin.RouterGroup, ctl *admin.Controller, rec *audit.Recorder, guard gin.HandlerFunc) {
	adm := router.Group("/admin")
	adm.Use(guard)
	{
		// Role editor
		roles := adm.Group("/roles")
		{
			roles.GET("/", middleware.RequirePermission(rec, "Administration", "Roles", models.PermissionView), ctl.ListRoles)
			roles.POST("/", middleware.RequirePermission(rec, "Administration", "Roles", models.PermissionAdd), ctl.CreateRole)
			roles.GET("/:id/permissions", middleware.RequirePermission(rec, "Administration", "Roles", models.PermissionView), ctl.RolePermissions)
			roles.POST("/permissions", middleware.RequirePermission(rec, "Administration", "Roles", models.PermissionEdit), ctl.SetRolePermissions)
		}
		adm.GET("/permission-tree", middleware.RequirePermission(rec, "Administration", "Roles", models.PermissionView), ctl.PermissionTree)

		// Tenancy masters
		adm.GET("/cities", middleware.RequirePermission(rec, "Administration", "Cities", models.PermissionView), ctl.ListCities)
		adm.POST("/cities", middleware.RequirePermission(rec, "Administration", "Cities", models.PermissionAdd), ctl.CreateCity)
		adm.GET("/garages", middleware.RequirePermission(rec, "Administration", "Garages", models.PermissionView), ctl.ListGarages)
		adm.POST("/garages", middleware.RequirePermission(rec, "Administration", "Garages", models.PermissionAdd), ctl.CreateGarage)

		// Audit viewer
		adm.GET("/audit-logs", middleware.RequirePermission(rec, "Administration", "Audit Logs", models.PermissionView), ctl.ListAuditLogs)
		adm.GET("/audit-logs/export", middleware.RequirePermission(rec, "Administration", "Audit Logs", models.PermissionExport), ctl.ExportAuditLogs)
	}
}
