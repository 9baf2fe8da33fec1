package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideeockus/capybanse-service/pkg/models"
)

func newMockCatalog(t *testing.T) (*Catalog, pgxmock.PgxPoolIface) {
	t.Helper()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	mockDB.ExpectExec("CREATE TABLE IF NOT EXISTS resonanse_events").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mockDB.ExpectExec("CREATE TABLE IF NOT EXISTS resonanse_users").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	catalog, err := NewCatalog(context.Background(), mockDB, logrus.New())
	require.NoError(t, err)

	return catalog, mockDB
}

func TestCatalog_AddEvent(t *testing.T) {
	event := models.Event{
		ID:           uuid.New(),
		Title:        "Go meetup",
		DatetimeFrom: time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC),
		ServiceID:    "kudago:190443",
		ServiceType:  models.SourceKudaGo,
	}

	t.Run("new event", func(t *testing.T) {
		catalog, mockDB := newMockCatalog(t)

		mockDB.ExpectExec("INSERT INTO resonanse_events").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		inserted, err := catalog.AddEvent(context.Background(), event)
		require.NoError(t, err)
		assert.True(t, inserted)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("duplicate service id", func(t *testing.T) {
		catalog, mockDB := newMockCatalog(t)

		mockDB.ExpectExec("INSERT INTO resonanse_events").
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		inserted, err := catalog.AddEvent(context.Background(), event)
		require.NoError(t, err)
		assert.False(t, inserted)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestCatalog_SetUserDescription(t *testing.T) {
	catalog, mockDB := newMockCatalog(t)

	mockDB.ExpectExec("INSERT INTO resonanse_users").
		WithArgs(int64(42), "I enjoy concerts and museums").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := catalog.SetUserDescription(context.Background(), 42, "I enjoy concerts and museums")
	require.NoError(t, err)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestCatalog_DescriptionByUserID(t *testing.T) {
	t.Run("known user", func(t *testing.T) {
		catalog, mockDB := newMockCatalog(t)

		stored := "I enjoy concerts and museums"
		mockDB.ExpectQuery("SELECT description FROM resonanse_users").
			WithArgs(int64(42)).
			WillReturnRows(pgxmock.NewRows([]string{"description"}).AddRow(&stored))

		description, err := catalog.DescriptionByUserID(context.Background(), 42)
		require.NoError(t, err)
		require.NotNil(t, description)
		assert.Equal(t, stored, *description)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		catalog, mockDB := newMockCatalog(t)

		mockDB.ExpectQuery("SELECT description FROM resonanse_users").
			WithArgs(int64(42)).
			WillReturnRows(pgxmock.NewRows([]string{"description"}))

		description, err := catalog.DescriptionByUserID(context.Background(), 42)
		require.NoError(t, err)
		assert.Nil(t, description)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("null description", func(t *testing.T) {
		catalog, mockDB := newMockCatalog(t)

		mockDB.ExpectQuery("SELECT description FROM resonanse_users").
			WithArgs(int64(42)).
			WillReturnRows(pgxmock.NewRows([]string{"description"}).AddRow((*string)(nil)))

		description, err := catalog.DescriptionByUserID(context.Background(), 42)
		require.NoError(t, err)
		assert.Nil(t, description)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}
