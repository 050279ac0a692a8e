package inventory

import (
	"errors"

	"github.com/wome-online/server/errs"
	"github.com/wome-online/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reconciler synchronizes a character's in-memory inventory snapshot
// into the store. The contract is upsert-by-absence: items already
// persisted are left untouched, items missing from the store are
// inserted, and items absent from the snapshot are never deleted.
// Running the same snapshot twice is a no-op the second time.
type Reconciler struct {
	logger *zap.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(logger *zap.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Reconcile inserts every snapshot item that has no stored row yet,
// owned by charID. It runs on the caller's transaction handle so that
// a character update and its reconciliation commit together.
//
// Items with a pre-assigned ID are matched by that ID and inserted
// with it, so a second pass finds them. Items with a zero ID are new
// and inserted unconditionally; the store assigns their ID.
func (r *Reconciler) Reconcile(tx *gorm.DB, charID int64, items []model.Item) error {
	for _, it := range items {
		if it.ID != 0 {
			var existing model.Item
			err := tx.Select("id").First(&existing, it.ID).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.FromStore(err)
			}
		}

		it.CharID = charID
		if err := tx.Create(&it).Error; err != nil {
			return errs.FromStore(err)
		}
		r.logger.Debug("inventory item inserted",
			zap.Int64("char_id", charID),
			zap.Int64("item_id", it.ID),
			zap.String("name", it.Name))
	}
	return nil
}
