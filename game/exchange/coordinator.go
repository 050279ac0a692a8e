package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wome-online/server/cache"
	"github.com/wome-online/server/errs"
	"github.com/wome-online/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultLockTTL = 30 * time.Second

// Result describes a committed exchange.
type Result struct {
	OfferID int64 `json:"offer_id"`
	// ReceivedItemID is the formerly offered item, now owned by the requester.
	ReceivedItemID int64 `json:"received_item_id"`
	// GivenItemID is the requester's matching item, now owned by the offerer.
	GivenItemID int64 `json:"given_item_id"`
	OffererID   int64 `json:"offerer_id"`
	RequesterID int64 `json:"requester_id"`
}

// Coordinator executes market exchanges. An exchange consumes an
// offer and swaps ownership of two items between two characters; the
// three writes (two ownership updates, one offer delete) commit in a
// single transaction or not at all.
type Coordinator struct {
	db      *gorm.DB
	cache   cache.Cache
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewCoordinator creates an exchange Coordinator. lockTTL bounds how
// long a stalled attempt may hold an offer's lock; zero selects the
// default of 30s.
func NewCoordinator(db *gorm.DB, c cache.Cache, lockTTL time.Duration, logger *zap.Logger) *Coordinator {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &Coordinator{db: db, cache: c, lockTTL: lockTTL, logger: logger}
}

// Execute runs the exchange protocol for the given offer on behalf of
// the requesting character.
//
// Validation resolves, inside the transaction: the offer row (gone ⇒
// errs.ErrNotFound, it was consumed concurrently), the requester's
// item matching the offer's requested name (absent ⇒
// errs.ErrValidation), and the offered item still held by the offerer
// (moved ⇒ errs.ErrConflict). The commit then flips both items'
// owner column and deletes the offer; a rows-affected count of zero
// on the delete means another exchange won the race, and the whole
// transaction aborts with errs.ErrConflict.
func (c *Coordinator) Execute(ctx context.Context, offerID, requesterID int64) (*Result, error) {
	lockKey := fmt.Sprintf("lock:exchange:%d", offerID)
	ok, err := c.cache.SetNX(ctx, lockKey, "1", c.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange lock: %v", errs.ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("offer %d is being exchanged: %w", offerID, errs.ErrConflict)
	}
	defer func() { _ = c.cache.Del(ctx, lockKey) }()

	res := &Result{OfferID: offerID, RequesterID: requesterID}
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var offer model.MarketOffer
		if err := tx.First(&offer, offerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("offer %d: %w", offerID, errs.ErrNotFound)
			}
			return errs.FromStore(err)
		}
		if offer.CharID == requesterID {
			return fmt.Errorf("character %d cannot take its own offer: %w", requesterID, errs.ErrValidation)
		}
		res.OffererID = offer.CharID

		// The requester must hold an item matching the requested name.
		var match model.Item
		err := tx.Where("char_id = ? AND name = ?", requesterID, offer.RequestedName).
			First(&match).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("character %d owns no item named %q: %w",
				requesterID, offer.RequestedName, errs.ErrValidation)
		}
		if err != nil {
			return errs.FromStore(err)
		}
		res.GivenItemID = match.ID

		// The offered item must still be where the offer says it is.
		var offered model.Item
		err = tx.Where("id = ? AND char_id = ?", offer.ItemID, offer.CharID).
			First(&offered).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("offered item %d no longer held by character %d: %w",
				offer.ItemID, offer.CharID, errs.ErrConflict)
		}
		if err != nil {
			return errs.FromStore(err)
		}
		res.ReceivedItemID = offered.ID

		if err := tx.Model(&model.Item{}).Where("id = ?", offered.ID).
			Update("char_id", requesterID).Error; err != nil {
			return errs.FromStore(err)
		}
		if err := tx.Model(&model.Item{}).Where("id = ?", match.ID).
			Update("char_id", offer.CharID).Error; err != nil {
			return errs.FromStore(err)
		}

		del := tx.Delete(&model.MarketOffer{}, offer.ID)
		if del.Error != nil {
			return errs.FromStore(del.Error)
		}
		if del.RowsAffected == 0 {
			return fmt.Errorf("offer %d consumed concurrently: %w", offerID, errs.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("exchange committed",
		zap.Int64("offer_id", res.OfferID),
		zap.Int64("requester_id", res.RequesterID),
		zap.Int64("offerer_id", res.OffererID),
		zap.Int64("received_item_id", res.ReceivedItemID),
		zap.Int64("given_item_id", res.GivenItemID))
	return res, nil
}
