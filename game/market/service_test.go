package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wome-online/server/errs"
	"github.com/wome-online/server/model"
	"github.com/wome-online/server/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewService(db, zap.NewNop()), db
}

func seedItem(t *testing.T, db *gorm.DB, id, charID int64, name string) {
	t.Helper()
	require.NoError(t, db.Create(&model.Item{ID: id, CharID: charID, Name: name}).Error)
}

func TestCreateOffer_Success(t *testing.T) {
	svc, db := newService(t)
	seedItem(t, db, 10, 1, "Sword")

	offer := &model.MarketOffer{ItemID: 10, CharID: 1, RequestedName: "Shield"}
	require.NoError(t, svc.CreateOffer(context.Background(), offer))
	assert.Positive(t, offer.ID)
	// Display name is denormalized from the item row.
	assert.Equal(t, "Sword", offer.OfferedName)
}

func TestCreateOffer_ItemNotOwned(t *testing.T) {
	svc, db := newService(t)
	seedItem(t, db, 10, 2, "Sword") // owned by someone else

	err := svc.CreateOffer(context.Background(), &model.MarketOffer{ItemID: 10, CharID: 1, RequestedName: "Shield"})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestCreateOffer_ItemMissing(t *testing.T) {
	svc, _ := newService(t)
	err := svc.CreateOffer(context.Background(), &model.MarketOffer{ItemID: 404, CharID: 1, RequestedName: "Shield"})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestCreateOffer_DuplicateRejected(t *testing.T) {
	svc, db := newService(t)
	seedItem(t, db, 10, 1, "Sword")

	first := &model.MarketOffer{ItemID: 10, CharID: 1, RequestedName: "Shield"}
	require.NoError(t, svc.CreateOffer(context.Background(), first))

	second := &model.MarketOffer{ItemID: 10, CharID: 1, RequestedName: "Helm"}
	err := svc.CreateOffer(context.Background(), second)
	assert.ErrorIs(t, err, errs.ErrConstraint)

	offers, err := svc.ListOffers(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, offers, 1)
}

func TestListOffers_ExcludesOwn(t *testing.T) {
	svc, db := newService(t)
	seedItem(t, db, 10, 1, "Sword")
	seedItem(t, db, 20, 2, "Shield")
	require.NoError(t, svc.CreateOffer(context.Background(), &model.MarketOffer{ItemID: 10, CharID: 1, RequestedName: "Shield"}))
	require.NoError(t, svc.CreateOffer(context.Background(), &model.MarketOffer{ItemID: 20, CharID: 2, RequestedName: "Sword"}))

	offers, err := svc.ListOffers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, int64(2), offers[0].CharID)
}

func TestListOffers_Empty(t *testing.T) {
	svc, _ := newService(t)
	offers, err := svc.ListOffers(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, offers)
}
