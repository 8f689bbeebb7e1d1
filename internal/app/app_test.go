package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Verkylen/projeto17-shortly/internal/config"
	"github.com/Verkylen/projeto17-shortly/internal/db/memorystorage"
	"github.com/Verkylen/projeto17-shortly/internal/models"
)

func TestGetAvailableStorageType(t *testing.T) {
	assert.Equal(
		t,
		models.StorageTypePostgresql,
		getAvailableStorageType(&config.Config{DatabaseDSN: "postgres://localhost:5432/shortly"}),
	)

	assert.Equal(
		t,
		models.StorageTypeMemory,
		getAvailableStorageType(&config.Config{}),
	)
}

func TestGetStorageByTypeFallsBackToMemory(t *testing.T) {
	theStorage, err := getStorageByType(&config.Config{})
	require.NoError(t, err)

	_, ok := theStorage.(*memorystorage.MemoryStorage)
	assert.True(t, ok)
}
