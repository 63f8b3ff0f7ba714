package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gastrogenius/restaurant-pos/internal/config"
	"github.com/gastrogenius/restaurant-pos/internal/db"
	"github.com/gastrogenius/restaurant-pos/internal/db/dbtest"
	"github.com/gastrogenius/restaurant-pos/internal/logging"
	"github.com/gastrogenius/restaurant-pos/models"
)

func testConfig() *config.Config {
	return &config.Config{
		SessionSecret: "test-secret-key",
		Database:      config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		Tax:           config.TaxConfig{SGSTRate: "0.025", CGSTRate: "0.025"},
		Receipt: config.ReceiptConfig{
			Name:    "GASTROGENIUS RESTAURANT",
			Tagline: "Pure Veg",
			Address: "Mumbai, India",
			FSSAI:   "12345678901234",
		},
	}
}

// Create a seeded database and a router on top of it
func setupTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn := dbtest.New(t)
	logger := logging.New("error", io.Discard)
	require.NoError(t, db.Seed(conn, logger))

	router, err := SetupRouter(conn, testConfig(), nil, logger)
	require.NoError(t, err)
	return router, conn
}

// client keeps the session cookie between requests
type client struct {
	t      *testing.T
	router *gin.Engine
	cookie []*http.Cookie
}

func (c *client) do(method, path string, payload interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewBuffer(raw)
	}
	req, _ := http.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range c.cookie {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		c.cookie = cookies
	}
	return w
}

func login(t *testing.T, router *gin.Engine, username string) *client {
	t.Helper()
	c := &client{t: t, router: router}
	w := c.do("POST", "/login", map[string]string{"username": username, "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return c
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func menuItemID(t *testing.T, conn *gorm.DB, name string) uint {
	t.Helper()
	var item models.MenuItem
	require.NoError(t, conn.Where("name = ?", name).First(&item).Error)
	return item.ID
}

func tableID(t *testing.T, conn *gorm.DB, number int) uint {
	t.Helper()
	var table models.Table
	require.NoError(t, conn.Where("number = ?", number).First(&table).Error)
	return table.ID
}

// ----------------------- TESTS ----------------------- //

func TestHealth(t *testing.T) {
	router, _ := setupTestServer(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(logging.RequestIDHeader))
}

func TestLogin(t *testing.T) {
	router, _ := setupTestServer(t)

	t.Run("wrong password", func(t *testing.T) {
		c := &client{t: t, router: router}
		w := c.do("POST", "/login", map[string]string{"username": "manager", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		c := &client{t: t, router: router}
		w := c.do("POST", "/login", map[string]string{"username": "manager"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("session cookie is locked down", func(t *testing.T) {
		c := &client{t: t, router: router}
		w := c.do("POST", "/login", map[string]string{"username": "waiter", "password": "password123"})
		require.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "possess", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
		assert.Equal(t, "/", cookies[0].Path)
	})

	t.Run("session identifies the user", func(t *testing.T) {
		c := login(t, router, "kitchen")
		w := c.do("GET", "/me", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var me map[string]interface{}
		decode(t, w, &me)
		assert.Equal(t, "kitchen", me["username"])
		assert.Equal(t, "kitchen", me["role"])

		w = c.do("POST", "/logout", nil)
		require.Equal(t, http.StatusOK, w.Code)
		w = c.do("GET", "/me", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRoleGating(t *testing.T) {
	router, _ := setupTestServer(t)
	anonymous := &client{t: t, router: router}
	waiter := login(t, router, "waiter")
	kitchen := login(t, router, "kitchen")
	manager := login(t, router, "manager")

	tests := []struct {
		method, path string
		anonymous    int
		waiter       int
		kitchen      int
		manager      int
	}{
		{"GET", "/tables", http.StatusUnauthorized, http.StatusOK, http.StatusForbidden, http.StatusOK},
		{"GET", "/kitchen", http.StatusUnauthorized, http.StatusForbidden, http.StatusOK, http.StatusOK},
		{"GET", "/manager", http.StatusUnauthorized, http.StatusForbidden, http.StatusForbidden, http.StatusOK},
		{"GET", "/manager/menu", http.StatusUnauthorized, http.StatusForbidden, http.StatusForbidden, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.anonymous, anonymous.do(tt.method, tt.path, nil).Code, "anonymous")
			assert.Equal(t, tt.waiter, waiter.do(tt.method, tt.path, nil).Code, "waiter")
			assert.Equal(t, tt.kitchen, kitchen.do(tt.method, tt.path, nil).Code, "kitchen")
			assert.Equal(t, tt.manager, manager.do(tt.method, tt.path, nil).Code, "manager")
		})
	}

	// only the kitchen moves items along
	w := manager.do("POST", "/kitchen/update", map[string]interface{}{"item_id": 1, "status": "prepared"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = kitchen.do("POST", "/tables/open", map[string]int{"table_number": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOpenTable(t *testing.T) {
	router, _ := setupTestServer(t)
	waiter := login(t, router, "waiter")

	w := waiter.do("POST", "/tables/open", map[string]int{"table_number": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order models.Order
	decode(t, w, &order)
	assert.True(t, order.IsActive)
	assert.False(t, order.IsPaid)

	w = waiter.do("POST", "/tables/open", map[string]int{"table_number": 3})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = waiter.do("POST", "/tables/open", map[string]int{"table_number": 42})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// zero is a table number like any other, only a missing one is malformed
	w = waiter.do("POST", "/tables/open", map[string]int{"table_number": 0})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	w = waiter.do("POST", "/tables/open", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = waiter.do("GET", "/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tables []struct {
		Number     int  `json:"number"`
		IsOccupied bool `json:"is_occupied"`
	}
	decode(t, w, &tables)
	require.Len(t, tables, 10)
	for _, table := range tables {
		assert.Equal(t, table.Number == 3, table.IsOccupied, "table %d", table.Number)
	}
}

func TestStorageFailureIsLoggedNotLeaked(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := dbtest.New(t)
	var logs bytes.Buffer
	logger := logging.New("error", &logs)
	require.NoError(t, db.Seed(conn, logger))
	router, err := SetupRouter(conn, testConfig(), nil, logger)
	require.NoError(t, err)

	waiter := login(t, router, "waiter")
	require.NoError(t, conn.Exec("DROP TABLE tables").Error)

	w := waiter.do("GET", "/tables", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "no such table")

	assert.Contains(t, logs.String(), `"msg":"request failed"`)
	assert.Contains(t, logs.String(), "no such table")
}

func TestOrderLifecycle(t *testing.T) {
	router, conn := setupTestServer(t)
	waiter := login(t, router, "waiter")
	kitchen := login(t, router, "kitchen")
	manager := login(t, router, "manager")

	table := tableID(t, conn, 3)
	paneer := menuItemID(t, conn, "Paneer Butter Masala")
	roti := menuItemID(t, conn, "Roti")

	// submit
	w := waiter.do("POST", fmt.Sprintf("/orders/submit/%d", table), map[string]interface{}{
		"items": []map[string]interface{}{
			{"id": paneer, "quantity": 2},
			{"id": roti, "quantity": 4},
			{"id": roti, "quantity": 0},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var submitted struct {
		Status string       `json:"status"`
		Order  models.Order `json:"order"`
	}
	decode(t, w, &submitted)
	assert.Equal(t, "success", submitted.Status)
	require.Len(t, submitted.Order.Items, 2)
	assert.Equal(t, "580", submitted.Order.TotalAmount().String())

	// status, newest line first
	w = waiter.do("GET", fmt.Sprintf("/orders/status/%d", table), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Items []models.OrderItem `json:"items"`
	}
	decode(t, w, &status)
	require.Len(t, status.Items, 2)
	assert.Equal(t, "Roti", status.Items[0].MenuItem.Name)

	// kitchen
	w = kitchen.do("GET", "/kitchen", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var queue struct {
		Orders []models.Order `json:"orders"`
	}
	decode(t, w, &queue)
	require.Len(t, queue.Orders, 1)

	w = kitchen.do("POST", "/kitchen/update", map[string]interface{}{"item_id": status.Items[0].ID, "status": "prepared"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = kitchen.do("POST", "/kitchen/update", map[string]interface{}{"item_id": status.Items[0].ID, "status": "burnt"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// bill
	w = waiter.do("GET", fmt.Sprintf("/orders/bill/%d", table), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"order_id":%d,"subtotal":"580.00","sgst":"14.50","cgst":"14.50","grand_total":"609.00","payable_total":"609"}`, submitted.Order.ID), w.Body.String())

	w = waiter.do("POST", fmt.Sprintf("/orders/bill/%d", table), map[string]string{"phone": "+919800000000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var billed models.Order
	require.NoError(t, conn.First(&billed, submitted.Order.ID).Error)
	assert.True(t, billed.IsActive)
	require.NotNil(t, billed.CustomerPhone)
	assert.Equal(t, "+919800000000", *billed.CustomerPhone)

	w = waiter.do("POST", fmt.Sprintf("/orders/bill/%d", table), map[string]string{"phone": "+91980000000012345"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// receipt
	w = waiter.do("GET", fmt.Sprintf("/orders/pdf/%d", submitted.Order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), fmt.Sprintf("bill_%d.pdf", submitted.Order.ID))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	// clear
	w = waiter.do("POST", fmt.Sprintf("/orders/clear/%d", table), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = waiter.do("POST", fmt.Sprintf("/orders/clear/%d", table), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// dashboard
	w = manager.do("GET", "/manager", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dashboard struct {
		TotalRevenue string `json:"total_revenue"`
		PopularItems []struct {
			Name      string `json:"name"`
			TotalSold int64  `json:"total_sold"`
		} `json:"popular_items"`
		RecentOrders []struct {
			ID     uint   `json:"id"`
			IsPaid bool   `json:"is_paid"`
			Total  string `json:"total"`
		} `json:"recent_orders"`
	}
	decode(t, w, &dashboard)
	assert.Equal(t, "580", dashboard.TotalRevenue)
	require.Len(t, dashboard.PopularItems, 2)
	assert.Equal(t, "Roti", dashboard.PopularItems[0].Name)
	assert.EqualValues(t, 4, dashboard.PopularItems[0].TotalSold)
	assert.EqualValues(t, 2, dashboard.PopularItems[1].TotalSold)
	require.Len(t, dashboard.RecentOrders, 1)
	assert.True(t, dashboard.RecentOrders[0].IsPaid)
	assert.Equal(t, "580", dashboard.RecentOrders[0].Total)
}

func TestSubmitUnknownItem(t *testing.T) {
	router, conn := setupTestServer(t)
	waiter := login(t, router, "waiter")
	table := tableID(t, conn, 1)

	w := waiter.do("POST", fmt.Sprintf("/orders/submit/%d", table), map[string]interface{}{
		"items": []map[string]interface{}{{"id": 99999, "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = waiter.do("GET", fmt.Sprintf("/orders/status/%d", table), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"order":null,"items":[]}`, w.Body.String())

	w = waiter.do("GET", "/orders/status/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManagerMenu(t *testing.T) {
	router, _ := setupTestServer(t)
	manager := login(t, router, "manager")

	w := manager.do("POST", "/manager/categories", map[string]string{"name": "Desserts"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var category models.Category
	decode(t, w, &category)

	w = manager.do("POST", "/manager/categories", map[string]string{"name": "Desserts"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = manager.do("POST", "/manager/menu", map[string]interface{}{"category_id": category.ID, "name": "Gulab Jamun", "price": "12.345"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = manager.do("POST", "/manager/menu", map[string]interface{}{"category_id": category.ID, "name": "Gulab Jamun", "price": "90.50"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item models.MenuItem
	decode(t, w, &item)
	assert.Equal(t, "90.5", item.Price.String())

	w = manager.do("PUT", fmt.Sprintf("/manager/menu/%d", item.ID), map[string]interface{}{"category_id": category.ID, "name": "Gulab Jamun (2 pc)", "price": 95})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &item)
	assert.Equal(t, "Gulab Jamun (2 pc)", item.Name)

	w = manager.do("DELETE", fmt.Sprintf("/manager/categories/%d", category.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = manager.do("DELETE", fmt.Sprintf("/manager/menu/%d", item.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForceClearTable(t *testing.T) {
	router, conn := setupTestServer(t)
	waiter := login(t, router, "waiter")
	manager := login(t, router, "manager")
	table := tableID(t, conn, 5)

	w := waiter.do("POST", "/tables/open", map[string]int{"table_number": 5})
	require.Equal(t, http.StatusCreated, w.Code)

	w = waiter.do("POST", fmt.Sprintf("/manager/tables/%d/clear", table), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = manager.do("POST", fmt.Sprintf("/manager/tables/%d/clear", table), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"cleared","closed_orders":1}`, w.Body.String())

	w = waiter.do("POST", "/tables/open", map[string]int{"table_number": 5})
	assert.Equal(t, http.StatusCreated, w.Code)
}
