package main

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gastrogenius/restaurant-pos/internal/auth"
	"github.com/gastrogenius/restaurant-pos/internal/billing"
	"github.com/gastrogenius/restaurant-pos/internal/config"
	"github.com/gastrogenius/restaurant-pos/internal/handlers"
	"github.com/gastrogenius/restaurant-pos/internal/logging"
	"github.com/gastrogenius/restaurant-pos/internal/notifier"
	"github.com/gastrogenius/restaurant-pos/internal/pos"
	"github.com/gastrogenius/restaurant-pos/internal/receipt"
)

// SetupRouter wires the engine and every endpoint. verifier may be nil, in
// which case only cookie sessions authenticate.
func SetupRouter(db *gorm.DB, cfg *config.Config, verifier auth.TokenVerifier, logger log.FieldLogger) (*gin.Engine, error) {
	sgst, cgst, err := cfg.Tax.Rates()
	if err != nil {
		return nil, err
	}
	users := auth.NewUsers(db)
	engine := pos.NewEngine(db, billing.Calculator{SGSTRate: sgst, CGSTRate: cgst}, notifier.New(cfg.SMS, logger), logger)
	h := handlers.New(engine, users, receipt.Header{
		Name:    cfg.Receipt.Name,
		Tagline: cfg.Receipt.Tagline,
		Address: cfg.Receipt.Address,
		FSSAI:   cfg.Receipt.FSSAI,
	}, logger)

	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(logger))
	r.Use(auth.Sessions(cfg.SessionSecret))
	r.Use(auth.Authenticate(users, verifier))

	// Health check endpoint
	r.GET("/health", h.Health)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/me", auth.RequireIdentity(), h.Me)

	// Floor
	r.GET("/tables", auth.Require(auth.OpOpenTable), h.ListTables)
	r.POST("/tables/open", auth.Require(auth.OpOpenTable), h.OpenTable)
	r.GET("/menu/:table_id", auth.Require(auth.OpViewMenu), h.Menu)

	orders := r.Group("/orders")
	{
		orders.POST("/submit/:table_id", auth.Require(auth.OpSubmitOrder), h.SubmitOrder)
		orders.GET("/status/:table_id", auth.Require(auth.OpViewOrderStatus), h.OrderStatus)
		orders.GET("/bill/:table_id", auth.Require(auth.OpRequestBill), h.Bill)
		orders.POST("/bill/:table_id", auth.Require(auth.OpRequestBill), h.RequestBill)
		orders.GET("/pdf/:order_id", auth.Require(auth.OpDownloadReceipt), h.Receipt)
		orders.POST("/clear/:table_id", auth.Require(auth.OpSettleOrder), h.ClearTable)
	}

	// Kitchen
	r.GET("/kitchen", auth.Require(auth.OpViewKitchen), h.KitchenQueue)
	r.POST("/kitchen/update", auth.Require(auth.OpUpdateItemStatus), h.UpdateItemStatus)

	// Manager
	manager := r.Group("/manager")
	{
		manager.GET("", auth.Require(auth.OpViewAnalytics), h.Dashboard)

		menu := manager.Group("", auth.Require(auth.OpManageMenu))
		menu.GET("/menu", h.ListMenu)
		menu.POST("/menu", h.CreateMenuItem)
		menu.PUT("/menu/:item_id", h.UpdateMenuItem)
		menu.DELETE("/menu/:item_id", h.DeleteMenuItem)
		menu.GET("/categories", h.ListMenu)
		menu.POST("/categories", h.CreateCategory)
		menu.DELETE("/categories/:category_id", h.DeleteCategory)

		manager.POST("/tables/:table_id/clear", auth.Require(auth.OpForceClearTable), h.ForceClearTable)
	}

	return r, nil
}
