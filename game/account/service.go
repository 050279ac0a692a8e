package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wome-online/server/errs"
	"github.com/wome-online/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Login for an unknown username
// or a wrong password; the two cases are deliberately not
// distinguishable by the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service owns account registration, login and lookup.
type Service struct {
	db     *gorm.DB
	hasher Hasher
	logger *zap.Logger
}

// NewService creates an account Service.
func NewService(db *gorm.DB, hasher Hasher, logger *zap.Logger) *Service {
	return &Service{db: db, hasher: hasher, logger: logger}
}

// Register creates a new account. A taken username yields
// errs.ErrConstraint. The existence pre-check is only a fast path:
// two concurrent registrations of the same name are arbitrated by the
// unique index on the username column, not by the check.
func (svc *Service) Register(ctx context.Context, username, password string) (*model.Account, error) {
	var existing model.Account
	err := svc.db.WithContext(ctx).Select("id").Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("register %q: %w", username, errs.ErrConstraint)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.FromStore(err)
	}

	hash, err := svc.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	acc := &model.Account{Username: username, PasswordHash: hash}
	if err := svc.db.WithContext(ctx).Create(acc).Error; err != nil {
		if errs.IsUniqueViolation(err) {
			// Lost the race against a concurrent registration.
			return nil, fmt.Errorf("register %q: %w", username, errs.ErrConstraint)
		}
		return nil, errs.FromStore(err)
	}

	svc.logger.Info("account registered", zap.String("username", username), zap.Int64("account_id", acc.ID))
	return acc, nil
}

// Login authenticates the username/password pair and returns the
// account. LastLoginAt is updated best-effort.
func (svc *Service) Login(ctx context.Context, username, password string) (*model.Account, error) {
	var acc model.Account
	err := svc.db.WithContext(ctx).Where("username = ?", username).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, errs.FromStore(err)
	}

	if err := svc.hasher.Compare(acc.PasswordHash, password); err != nil {
		svc.logger.Info("failed login attempt", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	_ = svc.db.WithContext(ctx).Model(&acc).Update("last_login_at", now).Error
	acc.LastLoginAt = &now

	svc.logger.Info("login", zap.String("username", username), zap.Int64("account_id", acc.ID))
	return &acc, nil
}

// Get returns the stored account record, or errs.ErrNotFound if the
// username is unknown.
func (svc *Service) Get(ctx context.Context, username string) (*model.Account, error) {
	var acc model.Account
	err := svc.db.WithContext(ctx).Where("username = ?", username).First(&acc).Error
	if err != nil {
		return nil, errs.FromStore(err)
	}
	return &acc, nil
}

// GetByID returns the account with the given ID, or errs.ErrNotFound.
func (svc *Service) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	var acc model.Account
	err := svc.db.WithContext(ctx).First(&acc, id).Error
	if err != nil {
		return nil, errs.FromStore(err)
	}
	return &acc, nil
}
