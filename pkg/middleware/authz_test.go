package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gms_backend/pkg/acl"
	"gms_backend/pkg/audit"
	"gms_backend/pkg/models"
	"gms_backend/pkg/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Garage{}, &models.StockInward{}, &models.AuditLog{}))
	return db
}

// serveWith runs a request through RequirePermission with the given session
// context preinstalled, standing in for the session guard.
func serveWith(t *testing.T, db *gorm.DB, ctx *session.Context, module, submodule string, action models.PermissionType) *httptest.ResponseRecorder {
	t.Helper()

	rec := audit.NewRecorder(db)
	router := gin.New()
	router.GET("/op",
		func(c *gin.Context) {
			if ctx != nil {
				c.Set(session.ContextKey, ctx)
			}
		},
		RequirePermission(rec, module, submodule, action),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": true}) },
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/op", nil))
	return w
}

func permittedCtx() *session.Context {
	return &session.Context{
		UserID:   1,
		Email:    "op@example.com",
		UserType: models.UserTypeGarage,
		ACL: acl.ACL{
			"Inventory": {
				"Product_Catalogue": {models.PermissionView},
			},
		},
	}
}

func TestRequirePermissionAllows(t *testing.T) {
	db := openTestDB(t)

	w := serveWith(t, db, permittedCtx(), "Inventory", "Product Catalogue", models.PermissionView)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermissionDeniesAndAudits(t *testing.T) {
	db := openTestDB(t)

	w := serveWith(t, db, permittedCtx(), "Inventory", "Product Catalogue", models.PermissionAdd)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var events []models.AuditLog
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "op@example.com", events[0].Actor)
	assert.Equal(t, "Inventory.Product Catalogue.ADD", events[0].EventTag)
	assert.Equal(t, http.StatusForbidden, events[0].ResultCode)
}

func TestRequirePermissionWithoutSession(t *testing.T) {
	db := openTestDB(t)

	w := serveWith(t, db, nil, "Inventory", "Product Catalogue", models.PermissionView)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func seedGarages(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, g := range []models.Garage{
		{ID: 1, Name: "North", CityID: 1},
		{ID: 2, Name: "South", CityID: 1},
		{ID: 3, Name: "East", CityID: 2},
	} {
		require.NoError(t, db.Create(&g).Error)
	}
	for gid, qty := range map[int]int{1: 5, 2: 7, 3: 9} {
		require.NoError(t, db.Create(&models.StockInward{GarageID: gid, ProductID: 1, Quantity: qty}).Error)
	}
}

func scopedGarageIDs(t *testing.T, db *gorm.DB, ctx *session.Context) []int {
	t.Helper()
	var rows []models.StockInward
	require.NoError(t, ScopeToGarages(db.Model(&models.StockInward{}), ctx).Find(&rows).Error)
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.GarageID)
	}
	return ids
}

func TestScopeToGaragesByUserType(t *testing.T) {
	db := openTestDB(t)
	seedGarages(t, db)

	business := &session.Context{UserType: models.UserTypeBusiness}
	assert.ElementsMatch(t, []int{1, 2, 3}, scopedGarageIDs(t, db, business))

	garage := &session.Context{UserType: models.UserTypeGarage, GarageIDs: []int{2}}
	assert.ElementsMatch(t, []int{2}, scopedGarageIDs(t, db, garage))

	admin := &session.Context{UserType: models.UserTypeAdmin, CityIDs: []int{1}}
	assert.ElementsMatch(t, []int{1, 2}, scopedGarageIDs(t, db, admin))
}

func TestScopeToGaragesEmptyScopeMatchesNothing(t *testing.T) {
	db := openTestDB(t)
	seedGarages(t, db)

	garage := &session.Context{UserType: models.UserTypeGarage}
	assert.Empty(t, scopedGarageIDs(t, db, garage))

	admin := &session.Context{UserType: models.UserTypeAdmin}
	assert.Empty(t, scopedGarageIDs(t, db, admin))
}

func TestRequireGarage(t *testing.T) {
	garage := &session.Context{UserType: models.UserTypeGarage, GarageIDs: []int{1, 2}}
	assert.NoError(t, RequireGarage(garage, 2))
	assert.Error(t, RequireGarage(garage, 3))

	business := &session.Context{UserType: models.UserTypeBusiness}
	assert.NoError(t, RequireGarage(business, 99))

	admin := &session.Context{UserType: models.UserTypeAdmin, GarageIDs: []int{5}}
	assert.NoError(t, RequireGarage(admin, 5))
	assert.Error(t, RequireGarage(admin, 6))
}

func TestActiveGarage(t *testing.T) {
	id := 7
	ctx := &session.Context{ActiveGarageID: &id}
	got, err := ActiveGarage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	_, err = ActiveGarage(&session.Context{})
	assert.Error(t, err)
}
