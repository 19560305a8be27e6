package models

import (
	"time"
)

// Business groups garages under one owner
type Business struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	LogoPath  *string   `json:"logoPath"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Garages []Garage `gorm:"foreignKey:BusinessID" json:"garages,omitempty"`
}

// City is the admin-level tenant scope
type City struct {
	ID   int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null" json:"name"`
}

// Garage is a tenant - one service location
type Garage struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	BusinessID *int      `gorm:"index" json:"businessId"`
	CityID     int       `gorm:"not null;index" json:"cityId"`
	Address    *string   `json:"address"`
	Phone      *string   `json:"phone"`
	IsActive   bool      `gorm:"default:true" json:"isActive"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Business *Business `gorm:"foreignKey:BusinessID;references:ID" json:"business,omitempty"`
	City     City      `gorm:"foreignKey:CityID;references:ID" json:"city,omitempty"`
}

// Role is a named bundle of permissions
type Role struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Permissions []RolePermission `gorm:"foreignKey:RoleID" json:"permissions,omitempty"`
}

// Module is the top level of the permission tree
type Module struct {
	ID   int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null" json:"name"`

	Submodules []Submodule `gorm:"foreignKey:ModuleID" json:"submodules,omitempty"`
}

// Submodule belongs to a module and carries permissions
type Submodule struct {
	ID       int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	ModuleID int    `gorm:"not null;index" json:"moduleId"`

	Module      Module       `gorm:"foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	Permissions []Permission `gorm:"foreignKey:SubmoduleID" json:"permissions,omitempty"`
}

// Permission is one grantable action on a submodule
type Permission struct {
	ID          int            `gorm:"primaryKey;autoIncrement" json:"id"`
	SubmoduleID int            `gorm:"not null;index" json:"submoduleId"`
	Type        PermissionType `gorm:"type:text;not null" json:"type"`

	Submodule Submodule `gorm:"foreignKey:SubmoduleID;references:ID" json:"submodule,omitempty"`
}

// RolePermission grants a permission to a role
type RolePermission struct {
	ID           int  `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleID       int  `gorm:"not null;index;uniqueIndex:idx_role_permission" json:"roleId"`
	PermissionID int  `gorm:"not null;uniqueIndex:idx_role_permission" json:"permissionId"`
	Value        bool `gorm:"default:true" json:"value"`

	Role       Role       `gorm:"foreignKey:RoleID;references:ID" json:"role,omitempty"`
	Permission Permission `gorm:"foreignKey:PermissionID;references:ID" json:"permission,omitempty"`
}

// BusinessPermission is the business-wide cap on any role
type BusinessPermission struct {
	ID           int  `gorm:"primaryKey;autoIncrement" json:"id"`
	PermissionID int  `gorm:"not null;uniqueIndex" json:"permissionId"`
	Value        bool `gorm:"default:true" json:"value"`

	Permission Permission `gorm:"foreignKey:PermissionID;references:ID" json:"permission,omitempty"`
}

// User is an operator identity
type User struct {
	ID                  int        `gorm:"primaryKey;autoIncrement" json:"id"`
	Email               string     `gorm:"unique;not null" json:"email"`
	Name                string     `gorm:"not null" json:"name"`
	Mobile              *string    `json:"mobile"`
	Password            string     `gorm:"not null" json:"-"`
	RoleID              int        `gorm:"not null;index" json:"roleId"`
	UserType            UserType   `gorm:"type:text;not null" json:"userType"`
	Status              UserStatus `gorm:"type:text;default:'ACTIVE'" json:"status"`
	Expiry              *time.Time `json:"expiry"`
	PasswordResetFlag   bool       `gorm:"default:false" json:"passwordResetFlag"`
	PasswordResetDays   int        `gorm:"default:90" json:"passwordResetDays"`
	PasswordResetLastAt time.Time  `json:"passwordResetLastAt"`
	BusinessID          *int       `gorm:"index" json:"businessId"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	Role     Role         `gorm:"foreignKey:RoleID;references:ID" json:"role,omitempty"`
	Business *Business    `gorm:"foreignKey:BusinessID;references:ID" json:"business,omitempty"`
	Garages  []UserGarage `gorm:"foreignKey:UserID" json:"garages,omitempty"`
	Cities   []UserCity   `gorm:"foreignKey:UserID" json:"cities,omitempty"`
}

// UserGarage scopes a user to a garage
type UserGarage struct {
	ID       int `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   int `gorm:"not null;index;uniqueIndex:idx_user_garage" json:"userId"`
	GarageID int `gorm:"not null;uniqueIndex:idx_user_garage" json:"garageId"`

	Garage Garage `gorm:"foreignKey:GarageID;references:ID" json:"garage,omitempty"`
}

// UserCity scopes a user to a city
type UserCity struct {
	ID     int `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int `gorm:"not null;index;uniqueIndex:idx_user_city" json:"userId"`
	CityID int `gorm:"not null;uniqueIndex:idx_user_city" json:"cityId"`

	City City `gorm:"foreignKey:CityID;references:ID" json:"city,omitempty"`
}

// UserActiveGarage is the sticky per-user pointer to the garage currently acted on
type UserActiveGarage struct {
	ID       int `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   int `gorm:"not null;uniqueIndex" json:"userId"`
	GarageID int `gorm:"not null" json:"garageId"`
}

// AuditLog is an append-only event record
type AuditLog struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Actor      string    `gorm:"not null;index" json:"actor"`
	Action     string    `gorm:"not null" json:"action"`
	EventTag   string    `gorm:"not null;index" json:"eventTag"`
	ResultCode int       `gorm:"not null" json:"resultCode"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}
