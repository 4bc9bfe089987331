package server

import (
	"net/http"
	stdhttptest "net/http/httptest"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/kataras/iris/v12/httptest"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/buysell/internal/auth"
	"github.com/example/buysell/internal/config"
	"github.com/example/buysell/internal/infra/captcha"
	"github.com/example/buysell/internal/infra/cas"
	"github.com/example/buysell/internal/infra/database"
	"github.com/example/buysell/internal/middleware"
	"github.com/example/buysell/internal/repository/gormrepo"
	"github.com/example/buysell/internal/service"
)

func newTestDeps(t *testing.T, casURL string) *Deps {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	cfg := config.DefaultConfig()
	store := gormrepo.NewStore(db)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	gate := auth.NewGate(&config.JWTConfig{Secret: "api-secret", TTL: time.Hour}, nil)
	monitor := service.NewMonitor()
	attempts := auth.NopAttemptGuard{}

	return &Deps{
		Store:   store,
		Gate:    gate,
		CAS:     cas.New(&config.CASConfig{BaseURL: casURL, ServiceURL: "http://app/cb", Timeout: time.Second}),
		Monitor: monitor,
		Accounts: service.NewAccountService(store, hasher, gate, captcha.PresenceVerifier{}, attempts, monitor,
			regexp.MustCompile(cfg.Account.EmailPattern), cfg.CAS.EmailDomain),
		Listings:    service.NewListingService(store, monitor),
		Carts:       service.NewCartService(store, monitor),
		Orders:      service.NewOrderService(store, hasher, attempts, service.NopPublisher{}, monitor),
		AuthLimiter: middleware.NewTokenBucket(100, 10),
	}
}

func registerBody(email string) map[string]interface{} {
	return map[string]interface{}{
		"firstName":     "Test",
		"lastName":      "User",
		"email":         email,
		"age":           22,
		"contactNumber": "9876543210",
		"password":      "secret123",
		"captchaToken":  "token",
	}
}

func bearer(tok string) string { return "Bearer " + tok }

func TestMarketplaceFlow(t *testing.T) {
	app := NewApp(newTestDeps(t, "http://cas.invalid"))
	e := httptest.New(t, app)
	register := func(email string) string {
		return e.POST("/api/auth/register").WithJSON(registerBody(email)).
			Expect().Status(httptest.StatusCreated).
			JSON().Object().Value("data").Object().Value("token").String().Raw()
	}

	sellerTok := register("seller@iiit.ac.in")
	buyerTok := register("buyer@students.iiit.ac.in")

	e.POST("/api/auth/register").WithJSON(map[string]interface{}{
		"firstName": "Dup", "lastName": "User", "email": "seller@iiit.ac.in",
		"age": 22, "contactNumber": "1", "password": "secret123", "captchaToken": "t",
	}).Expect().Status(httptest.StatusConflict).JSON().Object().HasValue("kind", "conflict")

	e.POST("/api/auth/login").WithJSON(map[string]string{
		"email": "seller@iiit.ac.in", "password": "wrong-pass", "captchaToken": "t",
	}).Expect().Status(httptest.StatusUnauthorized).JSON().Object().HasValue("msg", "invalid credentials")
	// 人机验证缺失与密码错误表现一致
	e.POST("/api/auth/login").WithJSON(map[string]string{
		"email": "seller@iiit.ac.in", "password": "secret123",
	}).Expect().Status(httptest.StatusUnauthorized).JSON().Object().HasValue("msg", "invalid credentials")

	e.GET("/api/cart").Expect().Status(httptest.StatusUnauthorized)
	e.GET("/api/cart").WithHeader("Authorization", "Bearer garbage").Expect().Status(httptest.StatusUnauthorized)

	me := e.GET("/api/users/me").WithHeader("Authorization", bearer(sellerTok)).
		Expect().Status(httptest.StatusOK).JSON().Object().Value("data").Object()
	me.HasValue("email", "seller@iiit.ac.in")
	me.NotContainsKey("passwordHash")
	sellerID := int64(me.Value("id").Number().Raw())

	item := e.POST("/api/items").WithHeader("Authorization", bearer(sellerTok)).
		WithJSON(map[string]interface{}{"name": "Desk Lamp", "price": 50, "description": "bright", "category": "electronics"}).
		Expect().Status(httptest.StatusCreated).JSON().Object().Value("data").Object()
	itemID := strconv.FormatInt(int64(item.Value("id").Number().Raw()), 10)

	e.GET("/api/items").WithQuery("search", "lamp").WithQuery("categories", "electronics,books").
		WithHeader("Authorization", bearer(buyerTok)).
		Expect().Status(httptest.StatusOK).JSON().Object().Value("data").Array().Length().IsEqual(1)
	e.GET("/api/items").WithQuery("categories", "toys").WithHeader("Authorization", bearer(buyerTok)).
		Expect().Status(httptest.StatusBadRequest)

	e.PATCH("/api/items/"+itemID).WithHeader("Authorization", bearer(sellerTok)).
		WithJSON(map[string]interface{}{"sellerId": 99}).
		Expect().Status(httptest.StatusBadRequest).JSON().Object().HasValue("kind", "validation")
	e.PATCH("/api/items/"+itemID).WithHeader("Authorization", bearer(buyerTok)).
		WithJSON(map[string]interface{}{"name": "Mine now"}).
		Expect().Status(httptest.StatusNotFound)

	e.POST("/api/cart/"+itemID).WithHeader("Authorization", bearer(sellerTok)).
		Expect().Status(httptest.StatusBadRequest)
	e.POST("/api/cart/"+itemID).WithHeader("Authorization", bearer(buyerTok)).
		Expect().Status(httptest.StatusCreated).JSON().Object().Value("data").Array().Length().IsEqual(1)
	e.POST("/api/cart/"+itemID).WithHeader("Authorization", bearer(buyerTok)).
		Expect().Status(httptest.StatusConflict)

	checkout := e.POST("/api/orders").WithHeader("Authorization", bearer(buyerTok)).
		Expect().Status(httptest.StatusCreated).JSON().Object().Value("data").Array()
	checkout.Length().IsEqual(1)
	first := checkout.Value(0).Object()
	code := first.Value("plaintextCode").String().Raw()
	placed := first.Value("order").Object()
	placed.NotContainsKey("otpHash")
	placed.HasValue("status", "pending")
	placed.Value("seller").Object().HasValue("id", sellerID)
	orderID := strconv.FormatInt(int64(placed.Value("id").Number().Raw()), 10)

	e.POST("/api/orders").WithHeader("Authorization", bearer(buyerTok)).
		Expect().Status(httptest.StatusBadRequest)

	e.GET("/api/orders/pending-deliveries").WithHeader("Authorization", bearer(sellerTok)).
		Expect().Status(httptest.StatusOK).JSON().Object().Value("data").Array().Length().IsEqual(1)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	e.POST("/api/orders/"+orderID+"/complete").WithHeader("Authorization", bearer(sellerTok)).
		WithJSON(map[string]string{"otp": wrong}).
		Expect().Status(httptest.StatusBadRequest)
	e.POST("/api/orders/"+orderID+"/complete").WithHeader("Authorization", bearer(buyerTok)).
		WithJSON(map[string]string{"otp": code}).
		Expect().Status(httptest.StatusNotFound)
	e.POST("/api/orders/"+orderID+"/complete").WithHeader("Authorization", bearer(sellerTok)).
		WithJSON(map[string]string{"otp": code}).
		Expect().Status(httptest.StatusOK).JSON().Object().Value("data").Object().HasValue("status", "completed")
	e.POST("/api/orders/"+orderID+"/regenerate-otp").WithHeader("Authorization", bearer(buyerTok)).
		Expect().Status(httptest.StatusNotFound)

	history := e.GET("/api/orders/buyer").WithHeader("Authorization", bearer(buyerTok)).
		Expect().Status(httptest.StatusOK).JSON().Object().Value("data").Array()
	history.Length().IsEqual(1)
	history.Value(0).Object().HasValue("status", "completed")

	e.GET("/api/orders/seller").WithHeader("Authorization", bearer(sellerTok)).
		Expect().Status(httptest.StatusOK).JSON().Object().Value("data").Array().Length().IsEqual(1)

	e.POST("/api/users/"+strconv.FormatInt(sellerID, 10)+"/reviews").WithHeader("Authorization", bearer(buyerTok)).
		WithJSON(map[string]interface{}{"rating": 5, "comment": "smooth handoff"}).
		Expect().Status(httptest.StatusCreated).JSON().Object().Value("data").Array().Length().IsEqual(1)

	e.GET("/api/health").Expect().Status(httptest.StatusOK).
		JSON().Object().Value("data").Object().HasValue("status", "ok")
}

func TestProfilePatchRejectsUnknownFields(t *testing.T) {
	app := NewApp(newTestDeps(t, "http://cas.invalid"))
	e := httptest.New(t, app)
	tok := e.POST("/api/auth/register").WithJSON(registerBody("p@iiit.ac.in")).
		Expect().Status(httptest.StatusCreated).
		JSON().Object().Value("data").Object().Value("token").String().Raw()

	e.PATCH("/api/users/me").WithHeader("Authorization", bearer(tok)).
		WithJSON(map[string]interface{}{"email": "other@iiit.ac.in"}).
		Expect().Status(httptest.StatusBadRequest).
		JSON().Object().HasValue("kind", "validation")
	e.PATCH("/api/users/me").WithHeader("Authorization", bearer(tok)).
		Expect().Status(httptest.StatusBadRequest)
	e.PATCH("/api/users/me").WithHeader("Authorization", bearer(tok)).
		WithJSON(map[string]interface{}{"firstName": "New", "newPassword": "abcdefg", "currentPassword": "secret123"}).
		Expect().Status(httptest.StatusBadRequest)
	e.PATCH("/api/users/me").WithHeader("Authorization", bearer(tok)).
		WithJSON(map[string]interface{}{"firstName": "New"}).
		Expect().Status(httptest.StatusOK).JSON().Object().Value("data").Object().HasValue("firstName", "New")
}

func TestCASCallback(t *testing.T) {
	casSrv := stdhttptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ticket") == "ST-ok" {
			_, _ = w.Write([]byte(`<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas"><cas:authenticationSuccess><cas:user>ravi</cas:user></cas:authenticationSuccess></cas:serviceResponse>`))
			return
		}
		_, _ = w.Write([]byte(`<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas"><cas:authenticationFailure code="INVALID_TICKET">no</cas:authenticationFailure></cas:serviceResponse>`))
	}))
	defer casSrv.Close()

	app := NewApp(newTestDeps(t, casSrv.URL))
	e := httptest.New(t, app)

	e.GET("/api/auth/cas/callback").WithQuery("ticket", "ST-ok").
		Expect().Status(httptest.StatusOK).
		JSON().Object().Value("data").Object().Value("user").Object().HasValue("email", "ravi@iiit.ac.in")
	e.GET("/api/auth/cas/callback").WithQuery("ticket", "ST-bad").
		Expect().Status(httptest.StatusBadRequest).JSON().Object().HasValue("kind", "auth_challenge")
}
