package service

import (
	"context"
	"fmt"
	"time"

	"fulfillment-service/config"
	"fulfillment-service/internal/broker"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/redisclient"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService is the order workflow engine. It orchestrates order
// placement (pricing, token issuance, stock deduction) and drives orders
// through the status state machine. Orders are mutated only here.
type OrderService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	pricing        *PricingEngine
	ledger         *InventoryLedger
	tokens         *TokenIssuer
	business       config.BusinessConfig
	logger         *zap.Logger
}

// NewOrderService creates a new order workflow engine. redis and
// eventPublisher may be nil; both are best-effort collaborators.
func NewOrderService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	pricing *PricingEngine,
	ledger *InventoryLedger,
	tokens *TokenIssuer,
	business config.BusinessConfig,
) *OrderService {
	return &OrderService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		pricing:        pricing,
		ledger:         ledger,
		tokens:         tokens,
		business:       business,
		logger:         util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to place an order
type CreateOrderRequest struct {
	ClientID       int64                `json:"client_id" binding:"required"`
	ShipperID      *int64               `json:"shipper_id,omitempty"`
	PaymentMethod  models.PaymentMethod `json:"payment_method" binding:"required"`
	Items          []OrderItemRequest   `json:"items" binding:"required,min=1"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
}

// OrderItemRequest represents an item in an order
type OrderItemRequest struct {
	VariantID int64 `json:"variant_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// mapPricer serves prices out of the variants already row-locked by the
// placement transaction, so the snapshot matches the locked state.
type mapPricer map[int64]*models.VariantDetail

func (m mapPricer) VariantPrice(_ context.Context, variantID int64) (decimal.Decimal, error) {
	v, ok := m[variantID]
	if !ok {
		return decimal.Zero, &models.VariantNotFoundError{VariantID: variantID}
	}
	return v.Price, nil
}

// CreateOrder places an order as one atomic unit: the order row, its
// lines (with unit prices captured now) and every stock deduction commit
// together or not at all.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.OrderInfo, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderPlacementLatency.Observe(time.Since(start).Seconds())
	}()

	if err := validateCreateOrder(req); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
		if existing != nil {
			s.logger.Info("Duplicate order request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Int64("order_id", existing.ID))
			return s.GetOrder(ctx, existing.ID)
		}
	}

	if req.ShipperID != nil {
		if _, err := s.store.GetShipper(ctx, *req.ShipperID); err != nil {
			util.OrdersFailedTotal.WithLabelValues("unknown_shipper").Inc()
			return nil, err
		}
	}

	// Fast-path precheck against the redis stock mirror. Advisory only:
	// the transactional floor check below is authoritative.
	if s.redis != nil {
		for _, item := range req.Items {
			ok, available, err := s.redis.PrecheckStock(ctx, item.VariantID, item.Quantity)
			if err == nil && !ok {
				util.StockDeductionsFailedTotal.WithLabelValues("precheck").Inc()
				return nil, &models.InsufficientStockError{
					VariantID: item.VariantID,
					Requested: item.Quantity,
					Available: available,
				}
			}
		}
	}

	tx, err := s.store.BeginTxx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	variants := make(mapPricer, len(req.Items))
	for _, item := range req.Items {
		variant, err := s.store.GetVariantDetailForUpdate(ctx, tx, item.VariantID)
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("unknown_variant").Inc()
			return nil, err
		}
		variants[item.VariantID] = variant
	}

	total, unitPrices, err := s.pricing.ComputeTotal(ctx, variants, req.Items)
	if err != nil {
		return nil, err
	}

	token := s.tokens.IssueIfAboveThreshold(total, s.business.TokenThreshold)
	if token != nil {
		util.DeliveryTokensIssuedTotal.Inc()
	}

	order := &models.Order{
		ClientID:       req.ClientID,
		ShipperID:      req.ShipperID,
		Status:         models.StatusPending,
		PaymentMethod:  req.PaymentMethod,
		TotalAmount:    total,
		DeliveryToken:  token,
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := s.store.InsertOrder(ctx, tx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	lines := make([]models.OrderLineDetail, 0, len(req.Items))
	for _, item := range req.Items {
		line := &models.OrderLine{
			OrderID:   order.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrices[item.VariantID],
		}

		if err := s.store.InsertOrderLine(ctx, tx, line); err != nil {
			return nil, fmt.Errorf("failed to create order line: %w", err)
		}

		if err := s.ledger.Deduct(ctx, tx, item.VariantID, item.Quantity); err != nil {
			util.StockDeductionsFailedTotal.WithLabelValues("insufficient").Inc()
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, err
		}

		variant := variants[item.VariantID]
		lines = append(lines, models.OrderLineDetail{
			VariantID:   item.VariantID,
			SKU:         variant.SKU,
			ProductName: variant.ProductName,
			Size:        variant.Size,
			Color:       variant.Color,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrices[item.VariantID],
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("total_amount", total.String()),
		zap.Bool("token_issued", token != nil))

	s.mirrorDeductions(ctx, req.Items)
	s.publishOrderPlaced(ctx, order, lines)

	return &models.OrderInfo{
		OrderID:       order.ID,
		CreatedAt:     order.CreatedAt,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		TotalAmount:   order.TotalAmount,
		ShipperID:     order.ShipperID,
		DeliveryToken: order.DeliveryToken,
		Lines:         lines,
	}, nil
}

func validateCreateOrder(req *CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return &models.ValidationError{Field: "items", Reason: "must not be empty"}
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return &models.ValidationError{Field: "payment_method", Reason: "unknown payment method"}
	}
	seen := make(map[int64]bool, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return &models.ValidationError{Field: "quantity", Reason: "must be positive"}
		}
		if seen[item.VariantID] {
			return &models.ValidationError{Field: "items", Reason: fmt.Sprintf("duplicate variant %d", item.VariantID)}
		}
		seen[item.VariantID] = true
	}
	return nil
}

// GetOrder retrieves an order with its lines and variant display info.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.OrderInfo, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lines, err := s.store.GetOrderLineDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &models.OrderInfo{
		OrderID:       order.ID,
		CreatedAt:     order.CreatedAt,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		TotalAmount:   order.TotalAmount,
		ShipperID:     order.ShipperID,
		DeliveryToken: order.DeliveryToken,
		Lines:         lines,
	}, nil
}

// ConfirmOrder moves a pending order to CONFIRMED.
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID int64) (*models.ShippingStatus, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ConfirmOrder")
	defer span.End()

	status, err := s.transition(ctx, orderID, models.StatusConfirmed, nil)
	if err != nil {
		return nil, err
	}
	util.OrdersConfirmedTotal.Inc()
	return status, nil
}

// StartShipping moves a confirmed order to SHIPPED.
func (s *OrderService) StartShipping(ctx context.Context, orderID int64) (*models.ShippingStatus, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.StartShipping")
	defer span.End()

	return s.transition(ctx, orderID, models.StatusShipped, nil)
}

// FinishDelivery moves a shipped order to DELIVERED. When a delivery
// token was issued at placement the client token must match it exactly;
// on mismatch the status is left untouched.
func (s *OrderService) FinishDelivery(ctx context.Context, orderID int64, clientToken *int) (*models.ShippingStatus, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.FinishDelivery")
	defer span.End()

	verify := func(order *models.Order) error {
		if order.DeliveryToken == nil {
			return nil
		}
		if clientToken == nil || !s.tokens.VerifyToken(*clientToken, *order.DeliveryToken) {
			util.TokenVerificationsFailedTotal.Inc()
			return &models.InvalidTokenError{Given: clientToken}
		}
		return nil
	}

	status, err := s.transition(ctx, orderID, models.StatusDelivered, verify)
	if err != nil {
		return nil, err
	}
	util.OrdersDeliveredTotal.Inc()
	return status, nil
}

// CancelOrder moves an order to CANCELED. Stock restoration is a policy
// decision: when enabled every line quantity is restored in the same
// transaction as the status change.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int64) (*models.ShippingStatus, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	tx, err := s.store.BeginTxx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.store.GetOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == models.StatusCanceled {
		return &models.ShippingStatus{OrderID: order.ID, Status: order.Status, UpdatedAt: order.UpdatedAt}, nil
	}

	if err := models.Transition(order.Status, models.StatusCanceled); err != nil {
		return nil, err
	}

	var restored []models.OrderLine
	if s.business.RestoreStockOnCancel {
		lines, err := s.store.GetOrderLines(ctx, tx, orderID)
		if err != nil {
			return nil, fmt.Errorf("failed to load order lines: %w", err)
		}
		for _, line := range lines {
			if err := s.ledger.Restore(ctx, tx, line.VariantID, line.Quantity); err != nil {
				return nil, fmt.Errorf("failed to restore stock: %w", err)
			}
		}
		restored = lines
	}

	updatedAt, err := s.store.UpdateOrderStatus(ctx, tx, orderID, models.StatusCanceled)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	util.OrdersCanceledTotal.Inc()
	s.logger.Info("Order canceled",
		zap.Int64("order_id", orderID),
		zap.Bool("stock_restored", s.business.RestoreStockOnCancel))

	for _, line := range restored {
		util.StockRestoredTotal.Add(float64(line.Quantity))
		s.mirrorRestore(ctx, line.VariantID, line.Quantity)
	}
	s.publishStatus(ctx, orderID, models.StatusCanceled)

	return &models.ShippingStatus{OrderID: orderID, Status: models.StatusCanceled, UpdatedAt: updatedAt}, nil
}

// DeleteOrder hard-deletes an order and its lines. Deducted stock stays
// deducted.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int64) (*models.OrderInfo, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	info, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.BeginTxx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.store.DeleteOrder(ctx, tx, orderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deletion: %w", err)
	}

	s.logger.Info("Order deleted", zap.Int64("order_id", orderID))
	s.publishDeleted(ctx, orderID)

	return info, nil
}

// transition loads the order row-locked, applies the state machine and
// sets the target status. A guard, when given, runs after the load and
// before any mutation. Re-applying the current status is a no-op.
func (s *OrderService) transition(ctx context.Context, orderID int64, target models.OrderStatus, guard func(*models.Order) error) (*models.ShippingStatus, error) {
	tx, err := s.store.BeginTxx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.store.GetOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if guard != nil {
		if err := guard(order); err != nil {
			return nil, err
		}
	}

	if order.Status == target {
		return &models.ShippingStatus{OrderID: order.ID, Status: order.Status, UpdatedAt: order.UpdatedAt}, nil
	}

	if err := models.Transition(order.Status, target); err != nil {
		return nil, err
	}

	updatedAt, err := s.store.UpdateOrderStatus(ctx, tx, orderID, target)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}

	s.logger.Info("Order status changed",
		zap.Int64("order_id", orderID),
		zap.String("status", string(target)))
	s.publishStatus(ctx, orderID, target)

	return &models.ShippingStatus{OrderID: orderID, Status: target, UpdatedAt: updatedAt}, nil
}

func (s *OrderService) mirrorDeductions(ctx context.Context, items []OrderItemRequest) {
	if s.redis == nil {
		return
	}
	for _, item := range items {
		if err := s.redis.MirrorDeduct(ctx, item.VariantID, item.Quantity); err != nil {
			s.logger.Warn("Failed to update stock mirror",
				zap.Int64("variant_id", item.VariantID),
				zap.Error(err))
		}
	}
}

func (s *OrderService) mirrorRestore(ctx context.Context, variantID int64, quantity int) {
	if s.redis == nil {
		return
	}
	if err := s.redis.MirrorRestore(ctx, variantID, quantity); err != nil {
		s.logger.Warn("Failed to restore stock mirror",
			zap.Int64("variant_id", variantID),
			zap.Error(err))
	}
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, order *models.Order, lines []models.OrderLineDetail) {
	if s.eventPublisher == nil {
		return
	}

	lineData := make([]models.OrderLineData, 0, len(lines))
	for _, line := range lines {
		lineData = append(lineData, models.OrderLineData{
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.String(),
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderPlaced),
		OrderID:     order.ID,
		ClientID:    order.ClientID,
		TotalAmount: order.TotalAmount.String(),
		TokenIssued: order.DeliveryToken != nil,
		Lines:       lineData,
	}

	if err := s.eventPublisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

func (s *OrderService) publishStatus(ctx context.Context, orderID int64, status models.OrderStatus) {
	if s.eventPublisher == nil {
		return
	}

	event := &models.OrderStatusEvent{
		BaseEvent: newBaseEvent(statusEventType(status)),
		OrderID:   orderID,
		Status:    status,
	}

	if err := s.eventPublisher.PublishOrderStatus(ctx, event); err != nil {
		s.logger.Error("Failed to publish order status event",
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

func (s *OrderService) publishDeleted(ctx context.Context, orderID int64) {
	if s.eventPublisher == nil {
		return
	}

	event := &models.OrderDeletedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderDeleted),
		OrderID:   orderID,
	}

	if err := s.eventPublisher.PublishOrderDeleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderDeleted event", zap.Error(err))
	}
}

func statusEventType(status models.OrderStatus) string {
	switch status {
	case models.StatusConfirmed:
		return models.EventTypeOrderConfirmed
	case models.StatusShipped:
		return models.EventTypeOrderShipped
	case models.StatusDelivered:
		return models.EventTypeOrderDelivered
	case models.StatusCanceled:
		return models.EventTypeOrderCanceled
	default:
		return string(status)
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
