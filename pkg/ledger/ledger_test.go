package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gms_backend/pkg/models"
)

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
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, garageID int) *models.ProductCatalogue {
	t.Helper()

	category := models.Category{GarageID: garageID, Name: "Filters"}
	require.NoError(t, db.Create(&category).Error)
	brand := models.Brand{GarageID: garageID, Name: "Bosch"}
	require.NoError(t, db.Create(&brand).Error)

	product := models.ProductCatalogue{
		GarageID:   garageID,
		Name:       "Oil Filter",
		CategoryID: category.ID,
		BrandID:    brand.ID,
		MinStock:   3,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func reload(t *testing.T, db *gorm.DB, id int) *models.ProductCatalogue {
	t.Helper()
	var product models.ProductCatalogue
	require.NoError(t, db.First(&product, id).Error)
	return &product
}

func TestRecordInwardRaisesCounters(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1)

	err := svc.RecordInward(&models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 10})
	require.NoError(t, err)

	got := reload(t, db, product.ID)
	assert.Equal(t, 10, got.InwardStock)
	assert.Equal(t, 0, got.OutwardStock)
	assert.Equal(t, 10, got.CurrentStock)
	assert.Equal(t, models.StockStatusOK, got.StockStatus)
}

func TestRecordInwardSetsCorrelationID(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1)

	in := models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 5}
	require.NoError(t, svc.RecordInward(&in))
	assert.Len(t, in.CorrelationID, 36)
}

func TestRecordInwardRejectsBadQuantity(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1)

	err := svc.RecordInward(&models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	err = svc.RecordInward(&models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: -5})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRecordInwardWrongGarage(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1)

	err := svc.RecordInward(&models.StockInward{GarageID: 2, ProductID: product.ID, Quantity: 5})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRecordOutwardChecksAvailability(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1)

	require.NoError(t, svc.RecordInward(&models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 10}))

	// First issue fits.
	err := svc.RecordOutward(&models.StockOutward{GarageID: 1, ProductID: product.ID, Quantity: 7, IssuedTo: "Bay 1"})
	require.NoError(t, err)

	// Second issue of the same size no longer does, and leaves no trace.
	err = svc.RecordOutward(&models.StockOutward{GarageID: 1, ProductID: product.ID, Quantity: 7, IssuedTo: "Bay 2"})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "Oil Filter", insufficient.ProductName)
	assert.Equal(t, 3, insufficient.Available)
	assert.Equal(t, 7, insufficient.Required)
	assert.Equal(t, "Insufficient stock for Oil Filter. Available: 3, Required: 7", err.Error())

	var outwardCount int64
	require.NoError(t, db.Model(&models.StockOutward{}).Count(&outwardCount).Error)
	assert.EqualValues(t, 1, outwardCount)

	got := reload(t, db, product.ID)
	assert.Equal(t, 3, got.CurrentStock)
	assert.Equal(t, models.StockStatusLow, got.StockStatus)
}

func TestConcurrentOutwardsNeverOversell(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1)

	require.NoError(t, svc.RecordInward(&models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 10}))

	// Two issues of 7 against stock 10: whichever transaction wins, the
	// other must fail the availability check.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.RecordOutward(&models.StockOutward{
				GarageID: 1, ProductID: product.ID, Quantity: 7, IssuedTo: "Bay",
			})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, failed := 0, 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		failed++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	got := reload(t, db, product.ID)
	assert.Equal(t, 3, got.CurrentStock)
	assert.GreaterOrEqual(t, got.CurrentStock, 0)
}

func TestCounterIdentityHoldsAcrossMovements(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1)

	require.NoError(t, svc.RecordInward(&models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 10}))
	require.NoError(t, svc.RecordInward(&models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 4}))
	require.NoError(t, svc.RecordOutward(&models.StockOutward{GarageID: 1, ProductID: product.ID, Quantity: 6, IssuedTo: "Bay 1"}))

	got := reload(t, db, product.ID)
	assert.Equal(t, 14, got.InwardStock)
	assert.Equal(t, 6, got.OutwardStock)
	assert.Equal(t, got.InwardStock-got.OutwardStock, got.CurrentStock)
}

func TestStockStatusTransitions(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1) // MinStock 3

	require.NoError(t, svc.RecordInward(&models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 5}))
	assert.Equal(t, models.StockStatusOK, reload(t, db, product.ID).StockStatus)

	require.NoError(t, svc.RecordOutward(&models.StockOutward{GarageID: 1, ProductID: product.ID, Quantity: 3, IssuedTo: "Bay 1"}))
	assert.Equal(t, models.StockStatusLow, reload(t, db, product.ID).StockStatus)

	require.NoError(t, svc.RecordOutward(&models.StockOutward{GarageID: 1, ProductID: product.ID, Quantity: 2, IssuedTo: "Bay 1"}))
	assert.Equal(t, models.StockStatusOutOfStock, reload(t, db, product.ID).StockStatus)
}

func TestDeleteInwardRefusesOversoldCorrection(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1)

	first := models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 10}
	require.NoError(t, svc.RecordInward(&first))
	require.NoError(t, svc.RecordOutward(&models.StockOutward{GarageID: 1, ProductID: product.ID, Quantity: 8, IssuedTo: "Bay 1"}))

	// Removing the only inward would leave outward 8 against inward 0.
	err := svc.DeleteInward(1, first.ID)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	// The movement survives the refused correction.
	var count int64
	require.NoError(t, db.Model(&models.StockInward{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteInwardReappliesCounters(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1)

	first := models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 10}
	require.NoError(t, svc.RecordInward(&first))
	require.NoError(t, svc.RecordInward(&models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 5}))
	require.NoError(t, svc.RecordOutward(&models.StockOutward{GarageID: 1, ProductID: product.ID, Quantity: 4, IssuedTo: "Bay 1"}))

	require.NoError(t, svc.DeleteInward(1, first.ID))

	got := reload(t, db, product.ID)
	assert.Equal(t, 5, got.InwardStock)
	assert.Equal(t, 4, got.OutwardStock)
	assert.Equal(t, 1, got.CurrentStock)
}

func TestDeleteOutwardReturnsStock(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1)

	require.NoError(t, svc.RecordInward(&models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 10}))
	out := models.StockOutward{GarageID: 1, ProductID: product.ID, Quantity: 6, IssuedTo: "Bay 1"}
	require.NoError(t, svc.RecordOutward(&out))

	require.NoError(t, svc.DeleteOutward(1, out.ID))

	got := reload(t, db, product.ID)
	assert.Equal(t, 0, got.OutwardStock)
	assert.Equal(t, 10, got.CurrentStock)
}

func TestDeleteMovementWrongGarage(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, 1)

	in := models.StockInward{GarageID: 1, ProductID: product.ID, Quantity: 10}
	require.NoError(t, svc.RecordInward(&in))

	assert.ErrorIs(t, svc.DeleteInward(2, in.ID), ErrMovementNotFound)
	assert.ErrorIs(t, svc.DeleteOutward(1, 999), ErrMovementNotFound)
}

func TestUpsertProductCreates(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	seeded := seedProduct(t, db, 1)

	price := 120.50
	product, created, err := svc.UpsertProduct(1, "Air Filter", seeded.CategoryID, seeded.BrandID, ProductFields{Price: &price})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Air Filter", product.Name)
	assert.Equal(t, 120.50, product.Price)
	assert.Equal(t, models.StockStatusOutOfStock, product.StockStatus)
}

func TestUpsertProductUpdatesOnlySuppliedFields(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	seeded := seedProduct(t, db, 1)

	code := "OF-100"
	price := 99.0
	_, created, err := svc.UpsertProduct(1, seeded.Name, seeded.CategoryID, seeded.BrandID, ProductFields{Code: &code, Price: &price})
	require.NoError(t, err)
	assert.False(t, created)

	newPrice := 110.0
	product, created, err := svc.UpsertProduct(1, seeded.Name, seeded.CategoryID, seeded.BrandID, ProductFields{Price: &newPrice})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 110.0, product.Price)
	assert.Equal(t, "OF-100", product.Code, "omitted field keeps its value")
}

func TestUpsertProductNoChangeIsNoop(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	seeded := seedProduct(t, db, 1)

	price := 99.0
	_, _, err := svc.UpsertProduct(1, seeded.Name, seeded.CategoryID, seeded.BrandID, ProductFields{Price: &price})
	require.NoError(t, err)

	before := reload(t, db, seeded.ID).UpdatedAt

	// Same values again must not rewrite the row.
	_, created, err := svc.UpsertProduct(1, seeded.Name, seeded.CategoryID, seeded.BrandID, ProductFields{Price: &price})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, before, reload(t, db, seeded.ID).UpdatedAt)
}

func TestUpsertProductNeverTouchesCounters(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	seeded := seedProduct(t, db, 1)

	require.NoError(t, svc.RecordInward(&models.StockInward{GarageID: 1, ProductID: seeded.ID, Quantity: 10}))

	code := "OF-200"
	product, _, err := svc.UpsertProduct(1, seeded.Name, seeded.CategoryID, seeded.BrandID, ProductFields{Code: &code})
	require.NoError(t, err)
	assert.Equal(t, 10, product.CurrentStock)
	assert.Equal(t, models.StockStatusOK, product.StockStatus)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, models.StockStatusOutOfStock, StatusFor(0, 5))
	assert.Equal(t, models.StockStatusLow, StatusFor(3, 5))
	assert.Equal(t, models.StockStatusLow, StatusFor(5, 5))
	assert.Equal(t, models.StockStatusOK, StatusFor(6, 5))
	assert.Equal(t, models.StockStatusOutOfStock, StatusFor(0, 0))
}
