package service

import (
	"github.com/jmoiron/sqlx"

	"github.com/retailworks/pos-backoffice/internal/models"
	"github.com/retailworks/pos-backoffice/internal/repository"
)

// createVersionInTx allocates the next version number for the order, writes
// an immutable snapshot of its current items and totals, and advances the
// order's current_version pointer. The caller owns the transaction and must
// persist the order afterwards.
func createVersionInTx(
	tx *sqlx.Tx,
	sequenceRepo *repository.SequenceRepository,
	versionRepo *repository.VersionRepository,
	order *models.Order,
	items []*models.OrderItem,
	changeSummary string,
	createdBy string,
) (*models.OrderVersion, error) {
	versionNumber, err := sequenceRepo.NextValueInTx(tx, order.ID, repository.SequenceVersion)

	if err != nil {
		return nil, err
	}

	version := models.NewOrderVersion(order, items, versionNumber, changeSummary, createdBy)

	if err := versionRepo.CreateInTx(tx, version); err != nil {
		return nil, err
	}

	order.CurrentVersion = versionNumber
	order.UpdatedAt = models.GetCurrentTime()

	return version, nil
}
