package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bouquet-recommender/internal/infrastructure/database"
	"bouquet-recommender/internal/pkg/common"

	"github.com/lib/pq"
)

const (
	flowerColumns = `f.flower_id::text, f.name, COALESCE(f.meaning, ''), COALESCE(f.color, ''), COALESCE(f.care_guide, '')`

	usableStock = `s.flower_id IS NOT NULL AND s.status = 'AVAILABLE' AND s.quantity > 0`

	queryFlowersByFragment = `SELECT DISTINCT ` + flowerColumns + `
FROM flowers f
JOIN stocks s ON s.flower_id = f.flower_id
WHERE strpos(f.name, $1) > 0 AND ` + usableStock + `
ORDER BY f.name`

	queryTopStoresByVariety = `SELECT s.store_id::text, COUNT(DISTINCT s.flower_id) AS flower_count
FROM stocks s
WHERE ` + usableStock + `
GROUP BY s.store_id
ORDER BY flower_count DESC, s.store_id
LIMIT $1`

	queryStoreInventory = `SELECT DISTINCT s.store_id::text, ` + flowerColumns + `
FROM stocks s
JOIN flowers f ON f.flower_id = s.flower_id
WHERE s.store_id::text = ANY($1) AND ` + usableStock + `
ORDER BY 1, 3`

	queryResolveStore = `SELECT store_id::text, name, address, COALESCE(business_hours, ''), COALESCE(has_pickup_box, false)
FROM stores
WHERE store_id::text = $1`

	queryPrimaryProduct = `SELECT product_id::text, store_id::text, name, price, type
FROM products
WHERE store_id::text = $1
ORDER BY CASE WHEN type = 'CUSTOM' THEN 0 ELSE 1 END, name
LIMIT 1`

	queryAvailableFlowers = `SELECT DISTINCT ` + flowerColumns + `
FROM flowers f
JOIN stocks s ON s.flower_id = f.flower_id
WHERE ` + usableStock + ` AND NOT (f.flower_id::text = ANY($1))
ORDER BY f.name
LIMIT $2`

	queryStockTotals = `SELECT s.store_id::text, s.flower_id::text, SUM(s.quantity)
FROM stocks s
WHERE s.flower_id::text = ANY($1) AND ` + usableStock + `
GROUP BY s.store_id, s.flower_id`

	queryFlowerNames = `SELECT name FROM flowers ORDER BY name`
)

// catalogError 以目錄錯誤代碼包裝查詢失敗
func catalogError(format string, args ...interface{}) error {
	return common.ErrCatalogError.Wrap(fmt.Errorf(format, args...))
}

func wrapRowsErr(err error) error {
	if err == nil {
		return nil
	}
	return catalogError("iterate rows: %w", err)
}

// PostgresGateway 以 PostgreSQL 實現的花卉目錄
type PostgresGateway struct {
	client *database.PostgresClient
}

// NewPostgresGateway 創建 PostgreSQL 目錄
func NewPostgresGateway(client *database.PostgresClient) *PostgresGateway {
	return &PostgresGateway{client: client}
}

func (g *PostgresGateway) queryFlowers(ctx context.Context, query string, args ...interface{}) ([]Flower, error) {
	rows, err := g.client.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flowers []Flower
	for rows.Next() {
		var f Flower
		if err := rows.Scan(&f.ID, &f.Name, &f.Meaning, &f.Color, &f.CareGuide); err != nil {
			return nil, err
		}
		flowers = append(flowers, f)
	}
	return flowers, rows.Err()
}

func (g *PostgresGateway) FindFlowersByNameFragment(ctx context.Context, fragment string) ([]Flower, error) {
	if fragment == "" {
		return nil, nil
	}
	flowers, err := g.queryFlowers(ctx, queryFlowersByFragment, fragment)
	if err != nil {
		return nil, catalogError("find flowers by fragment %q: %w", fragment, err)
	}
	return flowers, nil
}

func (g *PostgresGateway) TopStoresByVariety(ctx context.Context, limit int) ([]StoreVariety, error) {
	rows, err := g.client.Query(ctx, queryTopStoresByVariety, limit)
	if err != nil {
		return nil, catalogError("top stores by variety: %w", err)
	}
	defer rows.Close()

	var stores []StoreVariety
	for rows.Next() {
		var sv StoreVariety
		if err := rows.Scan(&sv.StoreID, &sv.FlowerCount); err != nil {
			return nil, catalogError("scan store variety: %w", err)
		}
		stores = append(stores, sv)
	}
	return stores, wrapRowsErr(rows.Err())
}

func (g *PostgresGateway) StoreInventory(ctx context.Context, storeIDs []string) (map[string][]InventoryItem, error) {
	result := make(map[string][]InventoryItem, len(storeIDs))
	if len(storeIDs) == 0 {
		return result, nil
	}

	rows, err := g.client.Query(ctx, queryStoreInventory, pq.Array(storeIDs))
	if err != nil {
		return nil, catalogError("store inventory: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var storeID string
		var f Flower
		if err := rows.Scan(&storeID, &f.ID, &f.Name, &f.Meaning, &f.Color, &f.CareGuide); err != nil {
			return nil, catalogError("scan store inventory: %w", err)
		}
		result[storeID] = append(result[storeID], InventoryItem{Flower: f, Meaning: f.DisplayMeaning()})
	}
	return result, wrapRowsErr(rows.Err())
}

func (g *PostgresGateway) ResolveStore(ctx context.Context, storeID string) (*Store, error) {
	var s Store
	err := g.client.QueryRow(ctx, queryResolveStore, storeID).
		Scan(&s.ID, &s.Name, &s.Address, &s.BusinessHour, &s.HasPickupBox)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, catalogError("resolve store %s: %w", storeID, err)
	}
	return &s, nil
}

func (g *PostgresGateway) PrimaryProductForStore(ctx context.Context, storeID string) (*Product, error) {
	var p Product
	var productType string
	err := g.client.QueryRow(ctx, queryPrimaryProduct, storeID).
		Scan(&p.ID, &p.StoreID, &p.Name, &p.Price, &productType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, catalogError("primary product for store %s: %w", storeID, err)
	}
	p.Type = ProductType(productType)
	return &p, nil
}

func (g *PostgresGateway) AvailableFlowers(ctx context.Context, limit int, excludeIDs []string) ([]Flower, error) {
	if limit <= 0 {
		return nil, nil
	}
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	flowers, err := g.queryFlowers(ctx, queryAvailableFlowers, pq.Array(excludeIDs), limit)
	if err != nil {
		return nil, catalogError("available flowers: %w", err)
	}
	return flowers, nil
}

func (g *PostgresGateway) StockTotals(ctx context.Context, flowerIDs []string) ([]StockTotal, error) {
	if len(flowerIDs) == 0 {
		return nil, nil
	}

	rows, err := g.client.Query(ctx, queryStockTotals, pq.Array(flowerIDs))
	if err != nil {
		return nil, catalogError("stock totals: %w", err)
	}
	defer rows.Close()

	var totals []StockTotal
	for rows.Next() {
		var t StockTotal
		if err := rows.Scan(&t.StoreID, &t.FlowerID, &t.Quantity); err != nil {
			return nil, catalogError("scan stock total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, wrapRowsErr(rows.Err())
}

func (g *PostgresGateway) ListFlowerNames(ctx context.Context) ([]string, error) {
	rows, err := g.client.Query(ctx, queryFlowerNames)
	if err != nil {
		return nil, catalogError("list flower names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, catalogError("scan flower name: %w", err)
		}
		names = append(names, name)
	}
	return names, wrapRowsErr(rows.Err())
}

func (g *PostgresGateway) Ping(ctx context.Context) error {
	return g.client.Ping(ctx)
}
