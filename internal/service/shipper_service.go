package service

import (
	"context"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"go.uber.org/zap"
)

// ShipperService handles shipper record management
type ShipperService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewShipperService creates a new shipper service
func NewShipperService(store *store.Store) *ShipperService {
	return &ShipperService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// ShipperRequest represents shipper data for create and update
type ShipperRequest struct {
	Name    string  `json:"shipper_name" binding:"required"`
	Email   string  `json:"shipper_email" binding:"required,email"`
	Contact *string `json:"shipper_contact,omitempty"`
}

// CreateShipper registers a new delivery partner
func (s *ShipperService) CreateShipper(ctx context.Context, req *ShipperRequest) (*models.Shipper, error) {
	shipper := &models.Shipper{
		Name:    req.Name,
		Email:   req.Email,
		Contact: req.Contact,
	}

	if err := s.store.CreateShipper(ctx, shipper); err != nil {
		return nil, err
	}

	s.logger.Info("Shipper created", zap.Int64("shipper_id", shipper.ID))
	return shipper, nil
}

// GetShipper retrieves a shipper by ID
func (s *ShipperService) GetShipper(ctx context.Context, shipperID int64) (*models.Shipper, error) {
	return s.store.GetShipper(ctx, shipperID)
}

// ListShippers retrieves all shippers
func (s *ShipperService) ListShippers(ctx context.Context) ([]models.Shipper, error) {
	return s.store.ListShippers(ctx)
}

// UpdateShipper updates a shipper's contact fields
func (s *ShipperService) UpdateShipper(ctx context.Context, shipperID int64, req *ShipperRequest) (*models.Shipper, error) {
	shipper := &models.Shipper{
		ID:      shipperID,
		Name:    req.Name,
		Email:   req.Email,
		Contact: req.Contact,
	}

	if err := s.store.UpdateShipper(ctx, shipper); err != nil {
		return nil, err
	}
	return shipper, nil
}

// DeleteShipper removes a shipper. Orders referencing it keep their
// shipper_id by way of the SET NULL foreign key.
func (s *ShipperService) DeleteShipper(ctx context.Context, shipperID int64) error {
	return s.store.DeleteShipper(ctx, shipperID)
}
