package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection, used by tests.
func NewStoreWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// BeginTxx starts a transaction. All order mutations run inside one.
func (s *Store) BeginTxx(ctx context.Context) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, nil)
}

const variantDetailQuery = `
	SELECT v.variant_id, v.product_id, p.sku, p.product_name, v.size, v.color, v.stock, v.price
	FROM product_variants v
	JOIN products p ON p.product_id = v.product_id
	WHERE v.variant_id = $1`

// GetVariantDetail retrieves a variant with its product display fields
func (s *Store) GetVariantDetail(ctx context.Context, variantID int64) (*models.VariantDetail, error) {
	var v models.VariantDetail
	err := s.db.GetContext(ctx, &v, variantDetailQuery, variantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.VariantNotFoundError{VariantID: variantID}
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVariantDetailForUpdate retrieves a variant inside the caller's
// transaction, row-locked so concurrent deductions serialize.
func (s *Store) GetVariantDetailForUpdate(ctx context.Context, q sqlx.ExtContext, variantID int64) (*models.VariantDetail, error) {
	var v models.VariantDetail
	err := sqlx.GetContext(ctx, q, &v, variantDetailQuery+" FOR UPDATE OF v", variantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.VariantNotFoundError{VariantID: variantID}
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVariantStocks retrieves stock counts for all variants, used to seed
// the redis stock mirror at startup.
func (s *Store) ListVariantStocks(ctx context.Context) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := s.db.SelectContext(ctx, &variants,
		"SELECT variant_id, product_id, size, color, stock, price FROM product_variants ORDER BY variant_id")
	return variants, err
}

// CreateShipper creates a new shipper
func (s *Store) CreateShipper(ctx context.Context, shipper *models.Shipper) error {
	query := `
		INSERT INTO shippers (shipper_name, shipper_email, shipper_contact)
		VALUES ($1, $2, $3)
		RETURNING shipper_id`

	return s.db.GetContext(ctx, &shipper.ID, query,
		shipper.Name, shipper.Email, shipper.Contact)
}

// GetShipper retrieves a shipper by ID
func (s *Store) GetShipper(ctx context.Context, shipperID int64) (*models.Shipper, error) {
	var shipper models.Shipper
	err := s.db.GetContext(ctx, &shipper, "SELECT * FROM shippers WHERE shipper_id = $1", shipperID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.ShipperNotFoundError{ShipperID: shipperID}
	}
	if err != nil {
		return nil, err
	}
	return &shipper, nil
}

// ListShippers retrieves all shippers
func (s *Store) ListShippers(ctx context.Context) ([]models.Shipper, error) {
	var shippers []models.Shipper
	err := s.db.SelectContext(ctx, &shippers, "SELECT * FROM shippers ORDER BY shipper_id")
	return shippers, err
}

// UpdateShipper updates a shipper's contact fields
func (s *Store) UpdateShipper(ctx context.Context, shipper *models.Shipper) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE shippers SET shipper_name = $1, shipper_email = $2, shipper_contact = $3 WHERE shipper_id = $4",
		shipper.Name, shipper.Email, shipper.Contact, shipper.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &models.ShipperNotFoundError{ShipperID: shipper.ID}
	}
	return nil
}

// DeleteShipper deletes a shipper by ID
func (s *Store) DeleteShipper(ctx context.Context, shipperID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM shippers WHERE shipper_id = $1", shipperID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &models.ShipperNotFoundError{ShipperID: shipperID}
	}
	return nil
}
