package service

import (
	"context"

	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/internal/repository"
	"github.com/retailworks/pos-backoffice/pkg/errors"
	"github.com/retailworks/pos-backoffice/pkg/logger"
)

// VersionService exposes the order version ledger
type VersionService struct {
	orderRepo   *repository.OrderRepository
	versionRepo *repository.VersionRepository
	logger      logger.Logger
}

// NewVersionService creates a new VersionService
func NewVersionService(
	orderRepo *repository.OrderRepository,
	versionRepo *repository.VersionRepository,
	logger logger.Logger,
) *VersionService {
	return &VersionService{
		orderRepo:   orderRepo,
		versionRepo: versionRepo,
		logger:      logger,
	}
}

// GetVersions lists an order's snapshots, newest first
func (s *VersionService) GetVersions(ctx context.Context, orderID string) ([]*models.OrderVersion, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	return s.versionRepo.GetByOrderID(ctx, orderID)
}

// GetVersion retrieves one snapshot by its per-order version number
func (s *VersionService) GetVersion(ctx context.Context, orderID string, versionNumber int) (*models.OrderVersion, error) {
	return s.versionRepo.GetByVersionNumber(ctx, orderID, versionNumber)
}

// CompareVersions diffs two snapshots of the same order
func (s *VersionService) CompareVersions(ctx context.Context, orderID string, fromNumber, toNumber int) (*models.VersionDiff, error) {
	if fromNumber <= 0 || toNumber <= 0 {
		return nil, errors.NewValidationError("version numbers must be positive")
	}

	from, err := s.versionRepo.GetByVersionNumber(ctx, orderID, fromNumber)

	if err != nil {
		return nil, err
	}

	to, err := s.versionRepo.GetByVersionNumber(ctx, orderID, toNumber)

	if err != nil {
		return nil, err
	}

	return models.DiffVersions(from, to), nil
}
