package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/passport-office-api/pkg/config"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "office",
		Password: "it's secret",
		Name:     "passport_office",
		SSLMode:  "disable",
	})
	assert.Equal(t, `host=db port=5432 user=office password='it\'s secret' dbname=passport_office sslmode=disable`, dsn)
}

func TestPostgresDSNEmptyValue(t *testing.T) {
	dsn := PostgresDSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Name: "n", SSLMode: "disable"})
	assert.Contains(t, dsn, "password=''")
}

func TestOpenSQLiteInMemory(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.Get(&one, "SELECT 1"))
	assert.Equal(t, 1, one)
}

func TestOpenMemoryDriverHasNoDatabase(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: config.DriverMemory})
	assert.Error(t, err)
}
