// Package admin hosts the role editor, tenancy masters and the audit
// log viewer.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gms_backend/pkg/acl"
	"gms_backend/pkg/audit"
	"gms_backend/pkg/models"
	"gms_backend/pkg/session"
	"gms_backend/pkg/utils"
)

const (
	tagRoles       = "admin.roles"
	tagPermissions = "admin.roles.permissions"
)

type Controller struct {
	DB       *gorm.DB
	Sessions *session.Service
	Audit    *audit.Recorder
}

func NewController(db *gorm.DB, sessions *session.Service, rec *audit.Recorder) *Controller {
	return &Controller{DB: db, Sessions: sessions, Audit: rec}
}

// PermissionTree returns the module tree restricted to what the business
// allows, for the role editor screen.
func (ctl *Controller) PermissionTree(c *gin.Context) {
	mods, err := acl.ProjectForBusiness(ctl.DB)
	if err != nil {
		utils.InternalError(c, "Could not load permissions.")
		return
	}
	utils.OK(c, "Permissions fetched successfully.", mods)
}

func (ctl *Controller) ListRoles(c *gin.Context) {
	var roles []models.Role
	if err := ctl.DB.Order("id").Find(&roles).Error; err != nil {
		utils.InternalError(c, "Could not load roles.")
		return
	}
	utils.OK(c, "Roles fetched successfully.", roles)
}

func (ctl *Controller) CreateRole(c *gin.Context) {
	ctx, _ := session.FromContext(c)

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Role name is required.")
		return
	}

	role := models.Role{Name: req.Name}
	if err := ctl.DB.Create(&role).Error; err != nil {
		utils.BadRequest(c, "A role with this name already exists.")
		return
	}

	ctl.Audit.Record(ctx.Email, "Created role "+role.Name, tagRoles, http.StatusCreated)
	utils.Created(c, "Role created successfully.", role)
}

// SetRolePermissions replaces a role's grant set. Each entry toggles one
// permission; existing grants not mentioned keep their value. Changes take
// effect on the next login since the projection is stored in the session.
func (ctl *Controller) SetRolePermissions(c *gin.Context) {
	ctx, _ := session.FromContext(c)

	var req struct {
		RoleID      int `json:"role_id" binding:"required"`
		Permissions []struct {
			PermissionID int  `json:"permission_id" binding:"required"`
			Value        bool `json:"value"`
		} `json:"permissions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "role_id and permissions are required.")
		return
	}

	var role models.Role
	if err := ctl.DB.First(&role, req.RoleID).Error; err != nil {
		utils.NotFound(c, "Role not found.")
		return
	}

	err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		for _, p := range req.Permissions {
			grant := models.RolePermission{
				RoleID:       req.RoleID,
				PermissionID: p.PermissionID,
				Value:        p.Value,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "role_id"}, {Name: "permission_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		ctl.Audit.Record(ctx.Email, "Failed to update permissions for role "+role.Name, tagPermissions, http.StatusInternalServerError)
		utils.InternalError(c, "Could not update role permissions.")
		return
	}

	ctl.Audit.Record(ctx.Email, "Updated permissions for role "+role.Name, tagPermissions, http.StatusOK)
	utils.OK(c, "Role permissions updated successfully.", nil)
}

// RolePermissions returns the stored grants for one role, paired with the
// business-capped projection so the editor can show effective access.
func (ctl *Controller) RolePermissions(c *gin.Context) {
	var role models.Role
	if err := ctl.DB.First(&role, "id = ?", c.Param("id")).Error; err != nil {
		utils.NotFound(c, "Role not found.")
		return
	}

	var grants []models.RolePermission
	if err := ctl.DB.Where("role_id = ?", role.ID).Order("id").Find(&grants).Error; err != nil {
		utils.InternalError(c, "Could not load role permissions.")
		return
	}

	projection, err := acl.ProjectForRole(ctl.DB, role.ID)
	if err != nil {
		utils.InternalError(c, "Could not load role permissions.")
		return
	}

	utils.OK(c, "Role permissions fetched successfully.", gin.H{
		"role":      role,
		"grants":    grants,
		"effective": projection,
	})
}
