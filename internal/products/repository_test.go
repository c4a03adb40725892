package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macado/b2b-backend/pkg/db/dbtest"
	"github.com/macado/b2b-backend/pkg/db/models"
)

func seedProduct(t *testing.T, repo *Repository, name string, active bool, tiers ...models.ProductVolumeTier) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:              "SKU-" + uuid.NewString()[:8],
		Name:             name,
		Category:         "tea",
		ListPrice:        2000,
		MinOrderQuantity: 1,
		IsActive:         active,
		VolumeTiers:      tiers,
	}
	created, err := repo.Create(context.Background(), product)
	require.NoError(t, err)
	if !active {
		require.NoError(t, repo.db.Model(created).Update("is_active", false).Error)
	}
	return created
}

func TestRepositoryListActiveOrdersByNameWithTiers(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	seedProduct(t, repo, "Sencha", true,
		models.ProductVolumeTier{MinQuantity: 500, DiscountPercent: decimal.NewFromInt(10)},
		models.ProductVolumeTier{MinQuantity: 100, DiscountPercent: decimal.NewFromInt(5)},
	)
	seedProduct(t, repo, "Genmaicha", true)
	seedProduct(t, repo, "Discontinued", false)

	products, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Genmaicha", products[0].Name)
	assert.Equal(t, "Sencha", products[1].Name)

	require.Len(t, products[1].VolumeTiers, 2)
	assert.Equal(t, 100, products[1].VolumeTiers[0].MinQuantity)
	assert.True(t, products[1].VolumeTiers[1].DiscountPercent.Equal(decimal.NewFromInt(10)))
}

func TestRepositoryFindByIDs(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	a := seedProduct(t, repo, "A", true)
	b := seedProduct(t, repo, "B", false)

	found, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	none, err := repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
