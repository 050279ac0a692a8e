package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wome-online/server/audit"
	"github.com/wome-online/server/game/account"
	"github.com/wome-online/server/game/exchange"
	"github.com/wome-online/server/game/market"
	mw "github.com/wome-online/server/middleware"
	"github.com/wome-online/server/model"
)

// MarketHandler handles marketplace REST endpoints.
type MarketHandler struct {
	accounts    *account.Service
	market      *market.Service
	coordinator *exchange.Coordinator
	audit       *audit.Service
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(accounts *account.Service, m *market.Service, co *exchange.Coordinator, aud *audit.Service) *MarketHandler {
	return &MarketHandler{accounts: accounts, market: m, coordinator: co, audit: aud}
}

// ListOffers handles GET /api/market/offers. Offers created by the
// requester's own character are excluded.
func (h *MarketHandler) ListOffers(c *gin.Context) {
	charID, ok := h.myCharID(c)
	if !ok {
		return
	}

	offers, err := h.market.ListOffers(c.Request.Context(), charID)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": errBody(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

type createOfferRequest struct {
	ItemID        int64  `json:"item_id" binding:"required"`
	RequestedName string `json:"requested_name" binding:"required,max=64"`
}

// CreateOffer handles POST /api/market/offers.
func (h *MarketHandler) CreateOffer(c *gin.Context) {
	charID, ok := h.myCharID(c)
	if !ok {
		return
	}

	var req createOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offer := &model.MarketOffer{
		ItemID:        req.ItemID,
		CharID:        charID,
		RequestedName: req.RequestedName,
	}
	if err := h.market.CreateOffer(c.Request.Context(), offer); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": errBody(err)})
		return
	}

	h.audit.Log(audit.Entry{
		TraceID: mw.GetTraceID(c),
		CharID:  &charID,
		Action:  audit.ActionOfferCreate,
		Detail:  gin.H{"offer_id": offer.ID, "item_id": offer.ItemID, "wants": offer.RequestedName},
		IP:      c.ClientIP(),
	})
	c.JSON(http.StatusCreated, offer)
}

// Exchange handles POST /api/market/offers/:id/exchange.
func (h *MarketHandler) Exchange(c *gin.Context) {
	charID, ok := h.myCharID(c)
	if !ok {
		return
	}
	offerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer id"})
		return
	}

	res, err := h.coordinator.Execute(c.Request.Context(), offerID, charID)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": errBody(err)})
		return
	}

	h.audit.Log(audit.Entry{
		TraceID: mw.GetTraceID(c),
		CharID:  &charID,
		Action:  audit.ActionExchange,
		Detail:  res,
		IP:      c.ClientIP(),
	})
	c.JSON(http.StatusOK, res)
}

// myCharID resolves the requesting account's linked character ID.
func (h *MarketHandler) myCharID(c *gin.Context) (int64, bool) {
	acc, err := h.accounts.GetByID(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	if acc.CharacterID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no character"})
		return 0, false
	}
	return *acc.CharacterID, true
}
