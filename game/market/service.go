package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/wome-online/server/errs"
	"github.com/wome-online/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service owns market offer creation and listing.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a market Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// CreateOffer stores a new offer. The offered item must currently be
// owned by the offering character (errs.ErrValidation otherwise), and
// a second open offer for the same (item, character) pair is rejected
// with errs.ErrConstraint. The duplicate pre-check is a fast path;
// the composite unique index on (item_id, char_id) settles races.
func (svc *Service) CreateOffer(ctx context.Context, offer *model.MarketOffer) error {
	var item model.Item
	err := svc.db.WithContext(ctx).
		Where("id = ? AND char_id = ?", offer.ItemID, offer.CharID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("offer item %d not owned by character %d: %w",
			offer.ItemID, offer.CharID, errs.ErrValidation)
	}
	if err != nil {
		return errs.FromStore(err)
	}

	var existing model.MarketOffer
	err = svc.db.WithContext(ctx).Select("id").
		Where("item_id = ? AND char_id = ?", offer.ItemID, offer.CharID).
		First(&existing).Error
	if err == nil {
		return fmt.Errorf("item %d already offered by character %d: %w",
			offer.ItemID, offer.CharID, errs.ErrConstraint)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.FromStore(err)
	}

	// Denormalized display name always comes from the item row.
	offer.OfferedName = item.Name
	if err := svc.db.WithContext(ctx).Create(offer).Error; err != nil {
		if errs.IsUniqueViolation(err) {
			return fmt.Errorf("item %d already offered by character %d: %w",
				offer.ItemID, offer.CharID, errs.ErrConstraint)
		}
		return errs.FromStore(err)
	}

	svc.logger.Info("offer created",
		zap.Int64("offer_id", offer.ID),
		zap.Int64("item_id", offer.ItemID),
		zap.Int64("char_id", offer.CharID),
		zap.String("wants", offer.RequestedName))
	return nil
}

// ListOffers returns every open offer not created by the given
// character. Order is unspecified; the result is a snapshot at the
// store's default read consistency.
func (svc *Service) ListOffers(ctx context.Context, excludingCharID int64) ([]model.MarketOffer, error) {
	var offers []model.MarketOffer
	if err := svc.db.WithContext(ctx).Where("char_id <> ?", excludingCharID).Find(&offers).Error; err != nil {
		return nil, errs.FromStore(err)
	}
	return offers, nil
}
