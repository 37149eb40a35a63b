package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/quotedesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockFolioSequencer creates a GormFolioSequencer with a mocked SQL connection
func newMockFolioSequencer(t *testing.T) (*GormFolioSequencer, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormFolioSequencer(gormDB), mock, mockDB
}

func TestGormFolioSequencer_IssueFolio(t *testing.T) {
	seq, mock, mockDB := newMockFolioSequencer(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "folio_sequences" WHERE name = \$1 .* FOR UPDATE`).
		WithArgs(folioSeqName, 1).
		WillReturnRows(sqlmock.NewRows([]string{"name", "next_value", "updated_at"}).
			AddRow(folioSeqName, 1042, time.Now()))
	mock.ExpectExec(`UPDATE "folio_sequences" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	folio, err := seq.IssueFolio(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Q-1042", folio)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormFolioSequencer_IssueFolio_FirstAllocation(t *testing.T) {
	seq, mock, mockDB := newMockFolioSequencer(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "folio_sequences" WHERE name = \$1 .* FOR UPDATE`).
		WithArgs(folioSeqName, 1).
		WillReturnRows(sqlmock.NewRows([]string{"name", "next_value", "updated_at"}))
	mock.ExpectExec(`INSERT INTO "folio_sequences"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "folio_sequences" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	folio, err := seq.IssueFolio(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Q-1000", folio)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormFolioSequencer_IssueFolio_BackendDown(t *testing.T) {
	seq, mock, mockDB := newMockFolioSequencer(t)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "folio_sequences"`).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectRollback()

	_, err := seq.IssueFolio(context.Background())
	assert.ErrorIs(t, err, shared.ErrTransient, "allocation failure is transient, never a fabricated folio")
}
