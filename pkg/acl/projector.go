// Package acl materializes role permissions into the nested projection the
// UI and the authorization guard consume.
package acl

import (
	"strings"

	"gorm.io/gorm"

	"gms_backend/pkg/models"
)

// ACL is the per-user nested mapping {module -> {submodule -> [permission types]}}.
// Keys use underscores in place of spaces to match the UI.
type ACL map[string]map[string][]models.PermissionType

// IsPermitted reports whether the projection allows action on (module, submodule)
func (a ACL) IsPermitted(module, submodule string, action models.PermissionType) bool {
	subs, ok := a[uiKey(module)]
	if !ok {
		return false
	}
	perms, ok := subs[uiKey(submodule)]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == action {
			return true
		}
	}
	return false
}

// ProjectForRole builds the ACL for a role. Only permissions present in both
// the role's grants and the business-wide allowed set appear. An unknown
// role yields an empty ACL, not an error; the caller decides whether empty
// means deny-all.
func ProjectForRole(db *gorm.DB, roleID int) (ACL, error) {
	capSet, err := businessCap(db)
	if err != nil {
		return nil, err
	}

	var grants []models.RolePermission
	if err := db.
		Where("role_id = ? AND value = ?", roleID, true).
		Preload("Permission.Submodule.Module").
		Order("id").
		Find(&grants).Error; err != nil {
		return nil, err
	}

	out := ACL{}
	for _, g := range grants {
		if !capSet[g.PermissionID] {
			continue
		}
		moduleKey := uiKey(g.Permission.Submodule.Module.Name)
		subKey := uiKey(g.Permission.Submodule.Name)
		if out[moduleKey] == nil {
			out[moduleKey] = map[string][]models.PermissionType{}
		}
		out[moduleKey][subKey] = append(out[moduleKey][subKey], g.Permission.Type)
	}
	return out, nil
}

// ProjectForBusiness returns the module tree filtered down to the
// business-wide allowed permissions, for the role editor screens.
func ProjectForBusiness(db *gorm.DB) ([]models.Module, error) {
	capSet, err := businessCap(db)
	if err != nil {
		return nil, err
	}

	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id") }

	var mods []models.Module
	if err := db.
		Preload("Submodules", byID).
		Preload("Submodules.Permissions", byID).
		Order("id").
		Find(&mods).Error; err != nil {
		return nil, err
	}

	out := make([]models.Module, 0, len(mods))
	for _, m := range mods {
		kept := make([]models.Submodule, 0, len(m.Submodules))
		for _, s := range m.Submodules {
			perms := make([]models.Permission, 0, len(s.Permissions))
			for _, p := range s.Permissions {
				if capSet[p.ID] {
					perms = append(perms, p)
				}
			}
			if len(perms) > 0 {
				s.Permissions = perms
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			m.Submodules = kept
			out = append(out, m)
		}
	}
	return out, nil
}

func businessCap(db *gorm.DB) (map[int]bool, error) {
	var caps []models.BusinessPermission
	if err := db.Where("value = ?", true).Find(&caps).Error; err != nil {
		return nil, err
	}
	capSet := make(map[int]bool, len(caps))
	for _, bp := range caps {
		capSet[bp.PermissionID] = true
	}
	return capSet, nil
}

func uiKey(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}
