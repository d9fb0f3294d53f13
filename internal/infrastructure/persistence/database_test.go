package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/ChenZongYanLive/OrderManagementSystem/internal/domain/mapping"
	"github.com/ChenZongYanLive/OrderManagementSystem/internal/infrastructure/persistence/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	stats, err := (&Database{DB: db}).Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Ping(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	// GORM pings while opening
	mock.ExpectPing()
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, (&Database{DB: gormDB}).Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockGormDB(t)

	mock.ExpectClose()
	assert.NoError(t, (&Database{DB: db}).Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db := &Database{DB: newSQLiteDB(t)}
		tpl, err := mapping.NewMappingTemplate("committed", "", mapping.KindCSV,
			mapping.FieldMapping{"name": mapping.MapTo(mapping.FieldCustomerName)}, false)
		require.NoError(t, err)

		err = db.Transaction(func(tx *gorm.DB) error {
			var m models.MappingTemplateModel
			if err := m.FromDomain(tpl); err != nil {
				return err
			}
			return tx.Create(&m).Error
		})
		require.NoError(t, err)

		_, err = NewGormTemplateRepository(db.DB).FindByName(context.Background(), "committed")
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := (&Database{DB: db}).Transaction(func(tx *gorm.DB) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
