package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/EmpoweredVote/fairlending-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_MissingURL(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{}, nil)
	assert.ErrorIs(t, err, config.ErrMissingDatabaseURL)
}

func TestEnsureSchemaAndPing(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	// gorm pings once on open
	mock.ExpectPing()
	gdb, err := Open(sqlDB, 0, nil)
	require.NoError(t, err)

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "geo"`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsureSchema(gdb, "geo"))

	mock.ExpectExec(`CREATE EXTENSION IF NOT EXISTS "postgis"`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsureExtension(gdb, "postgis"))

	mock.ExpectPing()
	require.NoError(t, Ping(context.Background(), gdb))

	assert.NoError(t, mock.ExpectationsWereMet())
}
