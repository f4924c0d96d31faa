package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"fulfillment-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreTest(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewStoreWithDB(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestGetVariantDetail(t *testing.T) {
	s, mock := newStoreTest(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM product_variants v")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"variant_id", "product_id", "sku", "product_name", "size", "color", "stock", "price",
		}).AddRow(int64(1), int64(10), "SKU-001", "Trail Runner", "42", "black", 7, "89.90"))

	v, err := s.GetVariantDetail(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), v.VariantID)
	assert.Equal(t, "SKU-001", v.SKU)
	assert.Equal(t, 7, v.Stock)
	assert.True(t, v.Price.Equal(decimal.RequireFromString("89.90")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVariantDetailNotFound(t *testing.T) {
	s, mock := newStoreTest(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM product_variants v")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetVariantDetail(context.Background(), 99)

	var notFound *models.VariantNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, int64(99), notFound.VariantID)
}

func TestGetOrderByIdempotencyKeyAbsent(t *testing.T) {
	s, mock := newStoreTest(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM orders WHERE idempotency_key = $1")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	order, err := s.GetOrderByIdempotencyKey(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	s, mock := newStoreTest(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE orders SET status = $1")).
		WithArgs("CONFIRMED", int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := s.UpdateOrderStatus(context.Background(), s.DB(), 99, models.StatusConfirmed)

	var notFound *models.OrderNotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestCreateShipper(t *testing.T) {
	s, mock := newStoreTest(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO shippers")).
		WithArgs("FastShip", "ops@fastship.example", nil).
		WillReturnRows(sqlmock.NewRows([]string{"shipper_id"}).AddRow(int64(5)))

	shipper := &models.Shipper{Name: "FastShip", Email: "ops@fastship.example"}
	require.NoError(t, s.CreateShipper(context.Background(), shipper))
	assert.Equal(t, int64(5), shipper.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShipperNotFound(t *testing.T) {
	s, mock := newStoreTest(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE shippers SET")).
		WithArgs("FastShip", "ops@fastship.example", nil, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateShipper(context.Background(), &models.Shipper{
		ID:    99,
		Name:  "FastShip",
		Email: "ops@fastship.example",
	})

	var notFound *models.ShipperNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, int64(99), notFound.ShipperID)
}

func TestDeleteShipperNotFound(t *testing.T) {
	s, mock := newStoreTest(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shippers WHERE shipper_id = $1")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	var notFound *models.ShipperNotFoundError
	require.True(t, errors.As(s.DeleteShipper(context.Background(), 99), &notFound))
}

func TestMarkEventProcessedIdempotent(t *testing.T) {
	s, mock := newStoreTest(t)

	// ON CONFLICT DO NOTHING swallows the duplicate insert.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO processed_events")).
		WithArgs("evt-1", "ORDER_PLACED").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.MarkEventProcessed(context.Background(), "evt-1", "ORDER_PLACED"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
