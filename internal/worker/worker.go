package worker

import (
	"context"
	"fmt"
	"log"

	"fulfillment-service/internal/broker"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"go.uber.org/zap"
)

// AuditWorker consumes order lifecycle events and records them as the
// order status-history trail. Processing is idempotent: an event id is
// applied at most once even when the broker redelivers.
type AuditWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	logger       *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer, store *store.Store) *AuditWorker {
	w := &AuditWorker{
		consumer: consumer,
		store:    store,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnOrderStatus(w.handleOrderStatus)
	eventHandler.OnOrderDeleted(w.handleOrderDeleted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	log.Println("Starting audit worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	log.Println("Stopping audit worker...")
	return w.consumer.Close()
}

func (w *AuditWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return w.record(ctx, event.BaseEvent, event.OrderID)
}

func (w *AuditWorker) handleOrderStatus(ctx context.Context, event *models.OrderStatusEvent) error {
	return w.record(ctx, event.BaseEvent, event.OrderID)
}

func (w *AuditWorker) handleOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error {
	return w.record(ctx, event.BaseEvent, event.OrderID)
}

func (w *AuditWorker) record(ctx context.Context, base models.BaseEvent, orderID int64) error {
	processed, err := w.store.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", base.EventID))
		return nil
	}

	if err := w.store.InsertOrderEvent(ctx, orderID, base.EventType, base.Timestamp); err != nil {
		return fmt.Errorf("failed to record order event: %w", err)
	}

	if err := w.store.MarkEventProcessed(ctx, base.EventID, base.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	w.logger.Info("Order event recorded",
		zap.Int64("order_id", orderID),
		zap.String("event_type", base.EventType))
	return nil
}
