package models

// UserType enum
type UserType string

const (
	UserTypeAdmin    UserType = "ADMIN"
	UserTypeBusiness UserType = "BUSINESS"
	UserTypeGarage   UserType = "GARAGE"
)

// UserStatus enum
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusInactive  UserStatus = "INACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// PermissionType enum - the action a permission grants on a submodule
type PermissionType string

const (
	PermissionView   PermissionType = "VIEW"
	PermissionAdd    PermissionType = "ADD"
	PermissionEdit   PermissionType = "EDIT"
	PermissionDelete PermissionType = "DELETE"
	PermissionExport PermissionType = "EXPORT"
)

// StockStatus enum - derived from current stock vs minimum stock
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StockStatusLow        StockStatus = "LOW"
	StockStatusOK         StockStatus = "OK"
)
