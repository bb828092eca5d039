package services

import (
	"context"
	"testing"

	"github.com/ABFerraz00/mandacafe/config"
	"github.com/ABFerraz00/mandacafe/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupTestDB opens a private in-memory SQLite database with the schema applied.
func setupTestDB(t *testing.T, plugins ...gorm.Plugin) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB("sqlite://file:"+uuid.NewString()+"?mode=memory&cache=shared", plugins...)
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() { _ = config.Close(db) })
	return db
}

func mustCategory(t *testing.T, svc *MenuService, nome string, ordem int) *models.Category {
	t.Helper()
	c, err := svc.CreateCategory(context.Background(), nome, ordem)
	require.NoError(t, err)
	return c
}

func mustDish(t *testing.T, svc *MenuService, categoryID uint, nome, preco string, available bool) *models.Dish {
	t.Helper()
	d, err := svc.CreateDish(context.Background(), CreateDishInput{
		Nome:        nome,
		Descricao:   "descricao de " + nome,
		Preco:       preco,
		CategoriaID: &categoryID,
		Disponivel:  &available,
	})
	require.NoError(t, err)
	return d
}

func ptr[T any](v T) *T { return &v }

func testLogger() *zap.Logger { return zap.NewNop() }
