package character

import (
	"context"
	"fmt"

	"github.com/wome-online/server/errs"
	"github.com/wome-online/server/game/inventory"
	"github.com/wome-online/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service owns character creation, stat/progress updates and lookup.
// Every multi-statement mutation runs inside one transaction.
type Service struct {
	db         *gorm.DB
	reconciler *inventory.Reconciler
	logger     *zap.Logger
}

// NewService creates a character Service.
func NewService(db *gorm.DB, rec *inventory.Reconciler, logger *zap.Logger) *Service {
	return &Service{db: db, reconciler: rec, logger: logger}
}

// Create inserts a new character for the named account and links the
// generated ID back into the account row. Both writes commit
// together; a failure in either leaves no character behind.
//
// The sheet's progress fields are forced to their starting values.
func (svc *Service) Create(ctx context.Context, ch *model.Character, username string) (int64, error) {
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acc model.Account
		if err := tx.Where("username = ?", username).First(&acc).Error; err != nil {
			return errs.FromStore(err)
		}
		if acc.CharacterID != nil {
			return fmt.Errorf("account %q already has a character: %w", username, errs.ErrConstraint)
		}

		ch.ID = 0
		ch.AccountID = acc.ID
		ch.Exp = 0
		ch.Level = 1
		ch.AllianceID = model.NoAlliance
		if err := tx.Create(ch).Error; err != nil {
			return errs.FromStore(err)
		}

		if err := tx.Model(&model.Account{}).Where("id = ?", acc.ID).
			Update("character_id", ch.ID).Error; err != nil {
			return errs.FromStore(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	svc.logger.Info("character created",
		zap.Int64("char_id", ch.ID),
		zap.String("name", ch.Name),
		zap.String("username", username))
	return ch.ID, nil
}

// Update overwrites the mutable stat and progress columns of an
// existing character, then reconciles its inventory snapshot. Both
// steps are one transaction: a reconciliation failure rolls back the
// stat update too.
func (svc *Service) Update(ctx context.Context, ch *model.Character) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Character{}).Where("id = ?", ch.ID).
			Updates(map[string]interface{}{
				"strength":     ch.Strength,
				"dexterity":    ch.Dexterity,
				"intelligence": ch.Intelligence,
				"max_health":   ch.MaxHealth,
				"max_energy":   ch.MaxEnergy,
				"exp":          ch.Exp,
				"level":        ch.Level,
			})
		if res.Error != nil {
			return errs.FromStore(res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("character %d: %w", ch.ID, errs.ErrNotFound)
		}
		return svc.reconciler.Reconcile(tx, ch.ID, ch.Inventory)
	})
}

// Get resolves the account's linked character and loads its inventory.
// An account without a character yields errs.ErrNotFound.
func (svc *Service) Get(ctx context.Context, username string) (*model.Character, error) {
	var acc model.Account
	if err := svc.db.WithContext(ctx).Where("username = ?", username).First(&acc).Error; err != nil {
		return nil, errs.FromStore(err)
	}
	if acc.CharacterID == nil {
		return nil, fmt.Errorf("account %q has no character: %w", username, errs.ErrNotFound)
	}

	var ch model.Character
	if err := svc.db.WithContext(ctx).First(&ch, *acc.CharacterID).Error; err != nil {
		return nil, errs.FromStore(err)
	}

	var items []model.Item
	if err := svc.db.WithContext(ctx).Where("char_id = ?", ch.ID).Find(&items).Error; err != nil {
		return nil, errs.FromStore(err)
	}
	ch.Inventory = items
	return &ch, nil
}
