package cli

import (
	"path/filepath"
	"testing"

	"github.com/ABFerraz00/mandacafe/config"
	"github.com/ABFerraz00/mandacafe/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAndSeedCommands(t *testing.T) {
	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "mandacafe.db")
	t.Setenv("DATABASE_URL", dbURL)
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("AUTH_STRATEGY", "jwt")
	t.Setenv("PORT", "3000")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ADMIN_PASSWORD", "cli-admin")
	t.Setenv("MANAGER_PASSWORD", "cli-manager")

	rootCmd.SetArgs([]string{"migrate"})
	require.NoError(t, Execute())

	rootCmd.SetArgs([]string{"seed"})
	require.NoError(t, Execute())
	// second run leaves the menu alone
	rootCmd.SetArgs([]string{"seed"})
	require.NoError(t, Execute())

	db, err := config.OpenDB(dbURL)
	require.NoError(t, err)
	defer config.Close(db)

	var categories, dishes int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	require.NoError(t, db.Model(&models.Dish{}).Count(&dishes).Error)
	assert.Equal(t, int64(4), categories)
	assert.Equal(t, int64(9), dishes)
}

func TestBootstrapRejectsInvalidConfig(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_STRATEGY", "jwt")
	t.Setenv("JWT_SECRET", "")

	_, _, err := bootstrap()
	assert.Error(t, err)
}
