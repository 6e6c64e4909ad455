package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEligibleStores_PartialOverlapExcluded(t *testing.T) {
	totals := []StockTotal{
		{StoreID: "A", FlowerID: "tulip", Quantity: 10},
		{StoreID: "A", FlowerID: "gyp", Quantity: 5},
		{StoreID: "B", FlowerID: "tulip", Quantity: 30},
		{StoreID: "C", FlowerID: "tulip", Quantity: 2},
		{StoreID: "C", FlowerID: "gyp", Quantity: 0},
		{StoreID: "D", FlowerID: "tulip", Quantity: 1},
		{StoreID: "D", FlowerID: "gyp", Quantity: 1},
		{StoreID: "D", FlowerID: "rose", Quantity: 9},
	}

	tests := []struct {
		name     string
		required []string
		want     []string
	}{
		{"both required", []string{"tulip", "gyp"}, []string{"A", "D"}},
		{"single", []string{"tulip"}, []string{"A", "B", "C", "D"}},
		{"nobody has all", []string{"tulip", "gyp", "rose", "lily"}, nil},
		{"empty required", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EligibleStores(totals, tt.required))
		})
	}
}

func TestEligibleStores_SumsSplitRows(t *testing.T) {
	totals := []StockTotal{
		{StoreID: "A", FlowerID: "tulip", Quantity: 0},
		{StoreID: "A", FlowerID: "tulip", Quantity: 3},
	}
	assert.Equal(t, []string{"A"}, EligibleStores(totals, []string{"tulip"}))
}

func twoStoreCatalog() Catalog {
	flowers := []Flower{
		{ID: "f-tulip", Name: "하얀 튤립", Meaning: "용서"},
		{ID: "f-gyp", Name: "안개꽃", Meaning: "맑은 마음"},
		{ID: "f-rose", Name: "빨간 장미"},
	}
	return Catalog{
		Flowers: flowers,
		Stores: []Store{
			{ID: "A", Name: "A 꽃집", Address: "A 주소"},
			{ID: "B", Name: "B 꽃집", Address: "B 주소"},
		},
		Products: []Product{
			{ID: "p-ready", StoreID: "A", Name: "완제품", Price: 30000, Type: ProductReadyMade},
			{ID: "p-custom", StoreID: "A", Name: "맞춤", Price: 50000, Type: ProductCustom},
			{ID: "p-b", StoreID: "B", Name: "B 완제품", Price: 20000, Type: ProductReadyMade},
		},
		Stocks: []Stock{
			{StoreID: "A", FlowerID: "f-tulip", Quantity: 10, Status: StockAvailable},
			{StoreID: "A", FlowerID: "f-gyp", Quantity: 4, Status: StockAvailable},
			{StoreID: "B", FlowerID: "f-tulip", Quantity: 6, Status: StockAvailable},
			{StoreID: "B", FlowerID: "f-gyp", Quantity: 8, Status: StockSoldOut},
			{StoreID: "B", FlowerID: "f-rose", Quantity: 0, Status: StockAvailable},
			{StoreID: "B", ProductID: "p-b", Quantity: 2, Status: StockAvailable},
		},
	}
}

func TestMemoryGateway_UsableStockOnly(t *testing.T) {
	gw := NewMemoryGateway(twoStoreCatalog())
	ctx := context.Background()

	flowers, err := gw.FindFlowersByNameFragment(ctx, "장미")
	require.NoError(t, err)
	assert.Empty(t, flowers, "zero quantity stock must not match")

	flowers, err = gw.FindFlowersByNameFragment(ctx, "튤립")
	require.NoError(t, err)
	require.Len(t, flowers, 1, "deduplicated across stores")

	stores, err := gw.TopStoresByVariety(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []StoreVariety{{StoreID: "A", FlowerCount: 2}, {StoreID: "B", FlowerCount: 1}}, stores)

	inv, err := gw.StoreInventory(ctx, []string{"B"})
	require.NoError(t, err)
	require.Len(t, inv["B"], 1)
	assert.Equal(t, "하얀 튤립", inv["B"][0].Flower.Name)

	totals, err := gw.StockTotals(ctx, []string{"f-tulip", "f-gyp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, EligibleStores(totals, []string{"f-tulip", "f-gyp"}))
}

func TestMemoryGateway_PrimaryProductPrefersCustom(t *testing.T) {
	gw := NewMemoryGateway(twoStoreCatalog())
	ctx := context.Background()

	p, err := gw.PrimaryProductForStore(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "p-custom", p.ID)

	p, err = gw.PrimaryProductForStore(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, "p-b", p.ID)

	p, err = gw.PrimaryProductForStore(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = gw.ResolveStore(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGateway_AvailableFlowersExcludes(t *testing.T) {
	gw := NewMemoryGateway(twoStoreCatalog())

	flowers, err := gw.AvailableFlowers(context.Background(), 5, []string{"f-tulip"})
	require.NoError(t, err)
	require.Len(t, flowers, 1)
	assert.Equal(t, "f-gyp", flowers[0].ID)
}

func TestSeedCatalog(t *testing.T) {
	c := SeedCatalog()
	gw := NewMemoryGateway(c)
	ctx := context.Background()

	assert.Len(t, c.Flowers, 6)
	assert.Equal(t, SeedID("flower", "하얀 튤립"), SeedID("flower", "하얀 튤립"))

	stores, err := gw.TopStoresByVariety(ctx, 5)
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, 6, stores[0].FlowerCount)

	product, err := gw.PrimaryProductForStore(ctx, stores[0].StoreID)
	require.NoError(t, err)
	assert.Equal(t, int64(45000), product.Price)

	names, err := gw.ListFlowerNames(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "하얀 튤립")
}
