package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wome-online/server/audit"
	"github.com/wome-online/server/game/account"
	"github.com/wome-online/server/game/character"
	mw "github.com/wome-online/server/middleware"
	"github.com/wome-online/server/model"
)

// CharacterHandler handles character REST endpoints. All routes are
// authenticated; the character operated on is always the one linked
// to the requesting account.
type CharacterHandler struct {
	accounts   *account.Service
	characters *character.Service
	audit      *audit.Service
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(accounts *account.Service, chars *character.Service, aud *audit.Service) *CharacterHandler {
	return &CharacterHandler{accounts: accounts, characters: chars, audit: aud}
}

type modifierPayload struct {
	Value int         `json:"value"`
	Op    model.ModOp `json:"op" binding:"omitempty,oneof=1 2 3"`
}

type itemPayload struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name" binding:"required,max=64"`
	Health       modifierPayload  `json:"health"`
	Strength     modifierPayload  `json:"strength"`
	Dexterity    modifierPayload  `json:"dexterity"`
	Intelligence modifierPayload  `json:"intelligence"`
	Energy       modifierPayload  `json:"energy"`
}

func (p itemPayload) toModel() model.Item {
	return model.Item{
		ID:                p.ID,
		Name:              p.Name,
		HealthValue:       p.Health.Value,
		HealthOp:          orAdd(p.Health.Op),
		StrengthValue:     p.Strength.Value,
		StrengthOp:        orAdd(p.Strength.Op),
		DexterityValue:    p.Dexterity.Value,
		DexterityOp:       orAdd(p.Dexterity.Op),
		IntelligenceValue: p.Intelligence.Value,
		IntelligenceOp:    orAdd(p.Intelligence.Op),
		EnergyValue:       p.Energy.Value,
		EnergyOp:          orAdd(p.Energy.Op),
	}
}

func orAdd(op model.ModOp) model.ModOp {
	if op == 0 {
		return model.OpAdd
	}
	return op
}

type createCharacterRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=32"`
	Caste        string `json:"caste" binding:"required,max=32"`
	Race         string `json:"race" binding:"required,max=32"`
	Strength     int    `json:"strength" binding:"min=0"`
	Dexterity    int    `json:"dexterity" binding:"min=0"`
	Intelligence int    `json:"intelligence" binding:"min=0"`
	MaxHealth    int    `json:"max_health" binding:"required,min=1"`
	MaxEnergy    int    `json:"max_energy" binding:"required,min=1"`
}

// Create handles POST /api/character.
func (h *CharacterHandler) Create(c *gin.Context) {
	acc, ok := h.myAccount(c)
	if !ok {
		return
	}

	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch := &model.Character{
		Name:         req.Name,
		Caste:        req.Caste,
		Race:         req.Race,
		Strength:     req.Strength,
		Dexterity:    req.Dexterity,
		Intelligence: req.Intelligence,
		MaxHealth:    req.MaxHealth,
		MaxEnergy:    req.MaxEnergy,
	}
	id, err := h.characters.Create(c.Request.Context(), ch, acc.Username)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": errBody(err)})
		return
	}

	h.audit.Log(audit.Entry{
		TraceID:   mw.GetTraceID(c),
		AccountID: &acc.ID,
		CharID:    &id,
		Action:    audit.ActionCharacterCreate,
		Detail:    gin.H{"name": req.Name, "caste": req.Caste, "race": req.Race},
		IP:        c.ClientIP(),
	})
	c.JSON(http.StatusCreated, ch)
}

type updateCharacterRequest struct {
	Strength     int           `json:"strength" binding:"min=0"`
	Dexterity    int           `json:"dexterity" binding:"min=0"`
	Intelligence int           `json:"intelligence" binding:"min=0"`
	MaxHealth    int           `json:"max_health" binding:"required,min=1"`
	MaxEnergy    int           `json:"max_energy" binding:"required,min=1"`
	Exp          int64         `json:"exp" binding:"min=0"`
	Level        int           `json:"level" binding:"required,min=1"`
	Inventory    []itemPayload `json:"inventory"`
}

// Update handles PUT /api/character.
func (h *CharacterHandler) Update(c *gin.Context) {
	acc, ok := h.myAccount(c)
	if !ok {
		return
	}
	if acc.CharacterID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no character"})
		return
	}

	var req updateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch := &model.Character{
		ID:           *acc.CharacterID,
		Strength:     req.Strength,
		Dexterity:    req.Dexterity,
		Intelligence: req.Intelligence,
		MaxHealth:    req.MaxHealth,
		MaxEnergy:    req.MaxEnergy,
		Exp:          req.Exp,
		Level:        req.Level,
	}
	for _, it := range req.Inventory {
		ch.Inventory = append(ch.Inventory, it.toModel())
	}

	if err := h.characters.Update(c.Request.Context(), ch); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": errBody(err)})
		return
	}

	h.audit.Log(audit.Entry{
		TraceID:   mw.GetTraceID(c),
		AccountID: &acc.ID,
		CharID:    acc.CharacterID,
		Action:    audit.ActionCharacterUpdate,
		IP:        c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// Get handles GET /api/character.
func (h *CharacterHandler) Get(c *gin.Context) {
	acc, ok := h.myAccount(c)
	if !ok {
		return
	}

	ch, err := h.characters.Get(c.Request.Context(), acc.Username)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": errBody(err)})
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *CharacterHandler) myAccount(c *gin.Context) (*model.Account, bool) {
	acc, err := h.accounts.GetByID(c.Request.Context(), mw.GetAccountID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return acc, true
}
