package inventory

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gms_backend/pkg/audit"
	"gms_backend/pkg/importer"
	"gms_backend/pkg/ledger"
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

	// One pooled connection keeps the in-memory database alive
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Brand{},
		&models.Supplier{},
		&models.ProductCatalogue{},
		&models.StockInward{},
		&models.StockOutward{},
		&models.AuditLog{},
	))
	return db
}

// newBulkRouter wires the controller behind a stand-in for the session
// guard that installs a garage operator context.
func newBulkRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()

	ctl := NewController(db, ledger.NewService(db), importer.New(t.TempDir()), audit.NewRecorder(db))
	garageID := 1
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(session.ContextKey, &session.Context{
			UserID:         1,
			Email:          "op@example.com",
			UserType:       models.UserTypeGarage,
			GarageIDs:      []int{garageID},
			ActiveGarageID: &garageID,
		})
	})
	router.POST("/inventory/stock-outward/bulk-upload", ctl.BulkUploadOutward)
	return router
}

func postBulkFile(t *testing.T, router *gin.Engine, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func seedStockedProduct(t *testing.T, db *gorm.DB, name string, stock int) *models.ProductCatalogue {
	t.Helper()

	category := models.Category{GarageID: 1, Name: "Brakes"}
	require.NoError(t, db.Create(&category).Error)
	brand := models.Brand{GarageID: 1, Name: "Brembo"}
	require.NoError(t, db.Create(&brand).Error)

	product := models.ProductCatalogue{
		GarageID:   1,
		Name:       name,
		CategoryID: category.ID,
		BrandID:    brand.ID,
	}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, ledger.NewService(db).RecordInward(&models.StockInward{
		GarageID: 1, ProductID: product.ID, Quantity: stock,
	}))
	return &product
}

func TestBulkUploadOutwardOversellRowFailsAlone(t *testing.T) {
	db := openTestDB(t)
	product := seedStockedProduct(t, db, "Brake Pad", 30)
	router := newBulkRouter(t, db)

	id := strconv.Itoa(product.ID)
	upload := "product_id,quantity,issued_to\n" +
		id + ",50,Job 900\n" + // oversells at current stock 30
		id + ",10,Job 901\n" +
		id + ",10,Job 902\n" +
		id + ",5,Job 903\n" +
		id + ",5,Job 904\n"

	w := postBulkFile(t, router, "/inventory/stock-outward/bulk-upload", "issues.csv", upload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Success int      `json:"success"`
			Failed  int      `json:"failed"`
			Errors  []string `json:"errors"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Status)
	assert.Equal(t, 4, resp.Data.Success)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "Row 2: Insufficient stock for Brake Pad. Available: 30, Required: 50", resp.Data.Errors[0])
	assert.True(t, strings.HasPrefix(resp.Message, "Uploaded 4 outward entries."), resp.Message)

	// The oversell row left no movement behind; the other four committed.
	var outwards int64
	require.NoError(t, db.Model(&models.StockOutward{}).Count(&outwards).Error)
	assert.EqualValues(t, 4, outwards)

	got := models.ProductCatalogue{}
	require.NoError(t, db.First(&got, product.ID).Error)
	assert.Equal(t, 0, got.CurrentStock)
	assert.Equal(t, models.StockStatusOutOfStock, got.StockStatus)
}
