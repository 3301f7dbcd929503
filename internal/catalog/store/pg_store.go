package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/rocketcart/internal/catalog"
	catalogerrors "github.com/abgdnv/rocketcart/internal/catalog/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var _ ProductStore = (*PgStore)(nil)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
	}
}

const productColumns = `id, title, price::text, image, stock`

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var (
		p     catalog.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Title, &price, &p.Image, &p.Amount); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q for product %d: %w", price, p.ID, err)
	}
	p.Price = d
	return &p, nil
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*catalog.Product, error) {
	row := p.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// FindAll retrieves products ordered by id with pagination support.
func (p *PgStore) FindAll(ctx context.Context, offset, limit int32) ([]catalog.Product, error) {
	rows, err := p.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	defer rows.Close()

	products := make([]catalog.Product, 0, limit)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// FindStock returns the stock of a product.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindStock(ctx context.Context, id int64) (*catalog.Stock, error) {
	var st catalog.Stock
	err := p.db.QueryRow(ctx, `SELECT id, stock FROM products WHERE id = $1`, id).Scan(&st.ID, &st.Amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find stock: %w", err)
	}
	return &st, nil
}

// Create adds a new product to the catalog.
func (p *PgStore) Create(ctx context.Context, title string, price decimal.Decimal, image string, stock int32) (*catalog.Product, error) {
	row := p.db.QueryRow(ctx,
		`INSERT INTO products (title, price, image, stock) VALUES ($1, $2::numeric, $3, $4) RETURNING `+productColumns,
		title, price.String(), image, stock)
	product, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// UpdateStock sets the stock of a product.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) UpdateStock(ctx context.Context, id int64, amount int32) (*catalog.Stock, error) {
	var st catalog.Stock
	err := p.db.QueryRow(ctx,
		`UPDATE products SET stock = $2, updated_at = now() WHERE id = $1 RETURNING id, stock`,
		id, amount).Scan(&st.ID, &st.Amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product stock: %w", err)
	}
	return &st, nil
}
