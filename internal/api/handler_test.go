package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	createFn  func(ctx context.Context, req *service.CreateOrderRequest) (*models.OrderInfo, error)
	getFn     func(ctx context.Context, orderID int64) (*models.OrderInfo, error)
	confirmFn func(ctx context.Context, orderID int64) (*models.ShippingStatus, error)
	shipFn    func(ctx context.Context, orderID int64) (*models.ShippingStatus, error)
	deliverFn func(ctx context.Context, orderID int64, clientToken *int) (*models.ShippingStatus, error)
	cancelFn  func(ctx context.Context, orderID int64) (*models.ShippingStatus, error)
	deleteFn  func(ctx context.Context, orderID int64) (*models.OrderInfo, error)
}

func (f *fakeOrders) CreateOrder(ctx context.Context, req *service.CreateOrderRequest) (*models.OrderInfo, error) {
	return f.createFn(ctx, req)
}

func (f *fakeOrders) GetOrder(ctx context.Context, orderID int64) (*models.OrderInfo, error) {
	return f.getFn(ctx, orderID)
}

func (f *fakeOrders) ConfirmOrder(ctx context.Context, orderID int64) (*models.ShippingStatus, error) {
	return f.confirmFn(ctx, orderID)
}

func (f *fakeOrders) StartShipping(ctx context.Context, orderID int64) (*models.ShippingStatus, error) {
	return f.shipFn(ctx, orderID)
}

func (f *fakeOrders) FinishDelivery(ctx context.Context, orderID int64, clientToken *int) (*models.ShippingStatus, error) {
	return f.deliverFn(ctx, orderID, clientToken)
}

func (f *fakeOrders) CancelOrder(ctx context.Context, orderID int64) (*models.ShippingStatus, error) {
	return f.cancelFn(ctx, orderID)
}

func (f *fakeOrders) DeleteOrder(ctx context.Context, orderID int64) (*models.OrderInfo, error) {
	return f.deleteFn(ctx, orderID)
}

type fakeShippers struct {
	deleteFn func(ctx context.Context, shipperID int64) error
	listFn   func(ctx context.Context) ([]models.Shipper, error)
}

func (f *fakeShippers) CreateShipper(ctx context.Context, req *service.ShipperRequest) (*models.Shipper, error) {
	return &models.Shipper{ID: 1, Name: req.Name, Email: req.Email}, nil
}

func (f *fakeShippers) GetShipper(ctx context.Context, shipperID int64) (*models.Shipper, error) {
	return nil, &models.ShipperNotFoundError{ShipperID: shipperID}
}

func (f *fakeShippers) ListShippers(ctx context.Context) ([]models.Shipper, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeShippers) UpdateShipper(ctx context.Context, shipperID int64, req *service.ShipperRequest) (*models.Shipper, error) {
	return &models.Shipper{ID: shipperID, Name: req.Name, Email: req.Email}, nil
}

func (f *fakeShippers) DeleteShipper(ctx context.Context, shipperID int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, shipperID)
	}
	return nil
}

type fakeCatalog struct {
	getFn func(ctx context.Context, variantID int64) (*models.VariantDetail, error)
}

func (f *fakeCatalog) GetVariant(ctx context.Context, variantID int64) (*models.VariantDetail, error) {
	return f.getFn(ctx, variantID)
}

func newTestRouter(orders *fakeOrders, shippers *fakeShippers, catalog *fakeCatalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if shippers == nil {
		shippers = &fakeShippers{}
	}
	if catalog == nil {
		catalog = &fakeCatalog{}
	}
	NewHandler(orders, shippers, catalog).SetupRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateOrderEndpoint(t *testing.T) {
	orders := &fakeOrders{
		createFn: func(_ context.Context, req *service.CreateOrderRequest) (*models.OrderInfo, error) {
			return &models.OrderInfo{
				OrderID:       42,
				CreatedAt:     time.Now(),
				Status:        models.StatusPending,
				PaymentMethod: req.PaymentMethod,
				TotalAmount:   decimal.NewFromInt(150),
			}, nil
		},
	}
	router := newTestRouter(orders, nil, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"client_id":      7,
		"payment_method": "CASH",
		"items":          []gin.H{{"variant_id": 1, "quantity": 3}},
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.OrderInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.OrderID)
	assert.Equal(t, models.StatusPending, resp.Status)
}

func TestCreateOrderEndpointHeaderIdempotencyKey(t *testing.T) {
	var captured string
	orders := &fakeOrders{
		createFn: func(_ context.Context, req *service.CreateOrderRequest) (*models.OrderInfo, error) {
			captured = req.IdempotencyKey
			return &models.OrderInfo{OrderID: 42}, nil
		},
	}
	router := newTestRouter(orders, nil, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"client_id":      7,
		"payment_method": "CASH",
		"items":          []gin.H{{"variant_id": 1, "quantity": 1}},
	}, map[string]string{"Idempotency-Key": "req-abc"})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "req-abc", captured)
}

func TestCreateOrderEndpointBadBody(t *testing.T) {
	router := newTestRouter(&fakeOrders{}, nil, nil)

	// items is required with at least one entry
	w := doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"client_id":      7,
		"payment_method": "CASH",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderEndpointInsufficientStock(t *testing.T) {
	orders := &fakeOrders{
		createFn: func(_ context.Context, _ *service.CreateOrderRequest) (*models.OrderInfo, error) {
			return nil, &models.InsufficientStockError{VariantID: 1, Requested: 5, Available: 2}
		},
	}
	router := newTestRouter(orders, nil, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"client_id":      7,
		"payment_method": "CASH",
		"items":          []gin.H{{"variant_id": 1, "quantity": 5}},
	}, nil)

	require.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["variant_id"])
	assert.EqualValues(t, 2, resp["available"])
}

func TestGetOrderEndpointNotFound(t *testing.T) {
	orders := &fakeOrders{
		getFn: func(_ context.Context, orderID int64) (*models.OrderInfo, error) {
			return nil, &models.OrderNotFoundError{OrderID: orderID}
		},
	}
	router := newTestRouter(orders, nil, nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/orders/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderEndpointBadID(t *testing.T) {
	router := newTestRouter(&fakeOrders{}, nil, nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/orders/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmOrderEndpointConflict(t *testing.T) {
	orders := &fakeOrders{
		confirmFn: func(_ context.Context, _ int64) (*models.ShippingStatus, error) {
			return nil, &models.InvalidTransitionError{From: models.StatusShipped, To: models.StatusConfirmed}
		},
	}
	router := newTestRouter(orders, nil, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/orders/42/confirm", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFinishDeliveryEndpoint(t *testing.T) {
	t.Run("wrong token", func(t *testing.T) {
		orders := &fakeOrders{
			deliverFn: func(_ context.Context, _ int64, clientToken *int) (*models.ShippingStatus, error) {
				return nil, &models.InvalidTokenError{Given: clientToken}
			},
		}
		router := newTestRouter(orders, nil, nil)

		w := doJSON(t, router, http.MethodPost, "/api/v1/orders/42/deliver", gin.H{"token": 1111}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("matching token", func(t *testing.T) {
		orders := &fakeOrders{
			deliverFn: func(_ context.Context, orderID int64, clientToken *int) (*models.ShippingStatus, error) {
				require.NotNil(t, clientToken)
				require.Equal(t, 4321, *clientToken)
				return &models.ShippingStatus{OrderID: orderID, Status: models.StatusDelivered, UpdatedAt: time.Now()}, nil
			},
		}
		router := newTestRouter(orders, nil, nil)

		w := doJSON(t, router, http.MethodPost, "/api/v1/orders/42/deliver", gin.H{"token": 4321}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.ShippingStatus
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.StatusDelivered, resp.Status)
	})

	t.Run("empty body allowed when no token issued", func(t *testing.T) {
		orders := &fakeOrders{
			deliverFn: func(_ context.Context, orderID int64, clientToken *int) (*models.ShippingStatus, error) {
				require.Nil(t, clientToken)
				return &models.ShippingStatus{OrderID: orderID, Status: models.StatusDelivered, UpdatedAt: time.Now()}, nil
			},
		}
		router := newTestRouter(orders, nil, nil)

		w := doJSON(t, router, http.MethodPost, "/api/v1/orders/42/deliver", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetVariantEndpoint(t *testing.T) {
	catalog := &fakeCatalog{
		getFn: func(_ context.Context, variantID int64) (*models.VariantDetail, error) {
			return &models.VariantDetail{
				VariantID:   variantID,
				SKU:         "SKU-001",
				ProductName: "Trail Runner",
				Color:       "black",
				Stock:       7,
				Price:       decimal.RequireFromString("89.90"),
			}, nil
		},
	}
	router := newTestRouter(&fakeOrders{}, nil, catalog)

	w := doJSON(t, router, http.MethodGet, "/api/v1/variants/1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.VariantDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SKU-001", resp.SKU)
}

func TestDeleteShipperEndpoint(t *testing.T) {
	router := newTestRouter(&fakeOrders{}, &fakeShippers{}, nil)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/shippers/1", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGetShipperEndpointNotFound(t *testing.T) {
	router := newTestRouter(&fakeOrders{}, &fakeShippers{}, nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/shippers/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(&fakeOrders{}, nil, nil)

	assert.Equal(t, http.StatusOK, doJSON(t, router, http.MethodGet, "/health", nil, nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, router, http.MethodGet, "/ready", nil, nil).Code)
}
