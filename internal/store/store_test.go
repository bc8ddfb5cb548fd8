package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec(`CREATE (TABLE|INDEX) IF NOT EXISTS`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS classes`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS students`).WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHealthy(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedis(mr.Addr())
	require.NoError(t, err)
	defer r.Close()

	assert.True(t, r.Healthy(context.Background()))
	mr.Close()
	assert.False(t, r.Healthy(context.Background()))

	var nilRedis *Redis
	assert.False(t, nilRedis.Healthy(context.Background()))
}

func TestNewRedis_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	r, err := NewRedis("redis://:s3cret@" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, r.Healthy(context.Background()))

	_, err = NewRedis("redis://" + mr.Addr() + "/notadb")
	assert.Error(t, err)
}

func TestConfigurePool(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	d, err := configure(context.Background(), db, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, db.Stats().MaxOpenConnections)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.False(t, d.Healthy(context.Background()))

	mock.ExpectClose()
	require.NoError(t, d.Close())
	assert.NoError(t, mock.ExpectationsWereMet())

	var nilDB *DB
	assert.False(t, nilDB.Healthy(context.Background()))
	assert.NoError(t, nilDB.Close())
}
