package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wome-online/server/audit"
	"github.com/wome-online/server/config"
	"github.com/wome-online/server/game/account"
	"github.com/wome-online/server/game/character"
	"github.com/wome-online/server/game/exchange"
	"github.com/wome-online/server/game/inventory"
	"github.com/wome-online/server/game/market"
	mw "github.com/wome-online/server/middleware"
	"github.com/wome-online/server/model"
	"github.com/wome-online/server/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

// newTestServer wires the full route table against an in-memory DB and
// a local cache, mirroring the production setup in main.go.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	sec := config.SecurityConfig{
		JWTSecret:       "test-secret",
		JWTTTLH:         time.Hour,
		ExchangeLockTTL: 30 * time.Second,
	}

	aud := audit.New(db, logger)
	t.Cleanup(func() { aud.Stop(context.Background()) })

	accounts := account.NewService(db, account.BcryptHasher{Cost: bcrypt.MinCost}, logger)
	characters := character.NewService(db, inventory.NewReconciler(logger), logger)
	markets := market.NewService(db, logger)
	coordinator := exchange.NewCoordinator(db, c, sec.ExchangeLockTTL, logger)

	authH := NewAuthHandler(accounts, c, sec, aud)
	charH := NewCharacterHandler(accounts, characters, aud)
	marketH := NewMarketHandler(accounts, markets, coordinator, aud)

	r := gin.New()
	r.Use(mw.TraceID())

	api := r.Group("/api")
	authG := api.Group("/auth")
	authG.POST("/register", authH.Register)
	authG.POST("/login", authH.Login)
	authG.POST("/logout", mw.Auth(sec, c), authH.Logout)

	charG := api.Group("/character")
	charG.Use(mw.Auth(sec, c))
	charG.GET("", charH.Get)
	charG.POST("", charH.Create)
	charG.PUT("", charH.Update)

	marketG := api.Group("/market")
	marketG.Use(mw.Auth(sec, c))
	marketG.GET("/offers", marketH.ListOffers)
	marketG.POST("/offers", marketH.CreateOffer)
	marketG.POST("/offers/:id/exchange", marketH.Exchange)

	return &testServer{router: r, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers an account and logs it in, returning the session token.
func (s *testServer) signup(t *testing.T, username string) string {
	t.Helper()
	creds := gin.H{"username": username, "password": "hunter22"}
	w := s.do(t, http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) createCharacter(t *testing.T, token, name string) int64 {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/character", token, gin.H{
		"name":       name,
		"caste":      "warrior",
		"race":       "human",
		"strength":   10,
		"dexterity":  10,
		"max_health": 100,
		"max_energy": 50,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ch model.Character
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ch))
	require.Positive(t, ch.ID)
	return ch.ID
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s := newTestServer(t)
	creds := gin.H{"username": "alice", "password": "hunter22"}

	w := s.do(t, http.MethodPost, "/api/auth/register", "", creds)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "hunter22"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCharacter_RequiresAuth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/character", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	w := s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/character", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCharacter_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	// No character yet.
	w := s.do(t, http.MethodGet, "/api/character", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	id := s.createCharacter(t, token, "Aria")

	w = s.do(t, http.MethodGet, "/api/character", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ch model.Character
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ch))
	assert.Equal(t, id, ch.ID)
	assert.Equal(t, "Aria", ch.Name)
	assert.Equal(t, 1, ch.Level)
	assert.Empty(t, ch.Inventory)

	// Save progress with one picked-up item.
	w = s.do(t, http.MethodPut, "/api/character", token, gin.H{
		"strength":   14,
		"dexterity":  11,
		"max_health": 120,
		"max_energy": 60,
		"exp":        250,
		"level":      2,
		"inventory": []gin.H{
			{"name": "Sword", "strength": gin.H{"value": 3, "op": model.OpAdd}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/character", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ch))
	assert.Equal(t, 14, ch.Strength)
	assert.Equal(t, 2, ch.Level)
	require.Len(t, ch.Inventory, 1)
	assert.Equal(t, "Sword", ch.Inventory[0].Name)
	assert.Equal(t, 3, ch.Inventory[0].StrengthValue)
}

func TestCharacter_SecondCreateRejected(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")
	s.createCharacter(t, token, "Aria")

	w := s.do(t, http.MethodPost, "/api/character", token, gin.H{
		"name": "Brin", "caste": "mage", "race": "elf",
		"max_health": 80, "max_energy": 120,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMarket_ExchangeFlow(t *testing.T) {
	s := newTestServer(t)
	aliceToken := s.signup(t, "alice")
	bobToken := s.signup(t, "bob")
	aliceChar := s.createCharacter(t, aliceToken, "Aria")
	bobChar := s.createCharacter(t, bobToken, "Borg")

	sword := model.Item{CharID: aliceChar, Name: "Sword"}
	shield := model.Item{CharID: bobChar, Name: "Shield"}
	require.NoError(t, s.db.Create(&sword).Error)
	require.NoError(t, s.db.Create(&shield).Error)

	// Alice lists her Sword, asking for any Shield.
	w := s.do(t, http.MethodPost, "/api/market/offers", aliceToken, gin.H{
		"item_id":        sword.ID,
		"requested_name": "Shield",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var offer model.MarketOffer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &offer))
	assert.Equal(t, "Sword", offer.OfferedName)

	// Bob browses: sees Alice's offer, not his own (he has none).
	w = s.do(t, http.MethodGet, "/api/market/offers", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Offers []model.MarketOffer `json:"offers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Offers, 1)

	// Alice must not see her own offer.
	w = s.do(t, http.MethodGet, "/api/market/offers", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Empty(t, listing.Offers)

	// Bob takes the offer.
	path := fmt.Sprintf("/api/market/offers/%d/exchange", offer.ID)
	w = s.do(t, http.MethodPost, path, bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res exchange.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, sword.ID, res.ReceivedItemID)
	assert.Equal(t, shield.ID, res.GivenItemID)

	var swappedSword model.Item
	require.NoError(t, s.db.First(&swappedSword, sword.ID).Error)
	assert.Equal(t, bobChar, swappedSword.CharID)
	var swappedShield model.Item
	require.NoError(t, s.db.First(&swappedShield, shield.ID).Error)
	assert.Equal(t, aliceChar, swappedShield.CharID)

	// The offer is consumed; a replay finds nothing.
	w = s.do(t, http.MethodPost, path, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarket_CreateOfferForUnownedItem(t *testing.T) {
	s := newTestServer(t)
	aliceToken := s.signup(t, "alice")
	bobToken := s.signup(t, "bob")
	s.createCharacter(t, aliceToken, "Aria")
	bobChar := s.createCharacter(t, bobToken, "Borg")

	shield := model.Item{CharID: bobChar, Name: "Shield"}
	require.NoError(t, s.db.Create(&shield).Error)

	w := s.do(t, http.MethodPost, "/api/market/offers", aliceToken, gin.H{
		"item_id":        shield.ID,
		"requested_name": "Sword",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarket_OfferWithoutCharacter(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice")

	w := s.do(t, http.MethodGet, "/api/market/offers", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
