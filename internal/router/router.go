package router

import (
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/zachow1/pdv-medusax8-sub000/internal/config"
	"github.com/zachow1/pdv-medusax8-sub000/internal/handler"
	"github.com/zachow1/pdv-medusax8-sub000/internal/infra"
	"github.com/zachow1/pdv-medusax8-sub000/internal/middleware"
	"github.com/zachow1/pdv-medusax8-sub000/internal/repository"
	"github.com/zachow1/pdv-medusax8-sub000/internal/service"
	"github.com/zachow1/pdv-medusax8-sub000/internal/terminal"
	"github.com/zachow1/pdv-medusax8-sub000/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	terminalClient := infra.NewTerminalClient(cfg.TerminalURL)
	registry := terminal.NewRegistry()
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	operatorRepo := repository.NewOperatorRepository(db)
	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	cashRepo := repository.NewCashRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	fiscalRepo := repository.NewFiscalRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(operatorRepo, cfg)
	catalogSvc := service.NewCatalogService(productRepo, rdb)
	cashSvc := service.NewCashService(cashRepo, registry, cfg)
	saleSvc := service.NewSaleService(
		saleRepo, cashRepo, customerRepo,
		catalogSvc, cashSvc, authSvc,
		registry, terminalClient, dispatcher, cfg,
	)
	fiscalSvc := service.NewFiscalService(fiscalRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	registerH := handler.NewRegisterHandler(cashSvc)
	terminalH := handler.NewTerminalHandler(saleSvc)
	priceH := handler.NewPriceHandler(catalogSvc)
	fiscalH := handler.NewFiscalHandler(fiscalSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
	}

	// Price check — no auth required
	r.GET("/v1/price/:code", priceH.Lookup)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		anyOperator := middleware.RequireRole("cashier", "supervisor", "admin")
		supervisorUp := middleware.RequireRole("supervisor", "admin")

		v1.POST("/auth/supervisor", anyOperator, authH.Supervisor)

		register := v1.Group("/register", anyOperator)
		{
			register.POST("/open", registerH.Open)
			register.POST("/close", registerH.Close)
			register.POST("/movement", registerH.Movement)
			register.GET("/balance", registerH.Balance)
			register.GET("/:id/report", registerH.Report)
		}

		term := v1.Group("/terminal", anyOperator)
		{
			term.POST("/sale/start", terminalH.StartSale)
			term.POST("/items", terminalH.AddItem)
			term.POST("/items/cancel", terminalH.CancelItem)
			term.POST("/items/:seq/discount", terminalH.ItemDiscount)
			term.POST("/discount", terminalH.SaleDiscount)
			term.GET("/cart", terminalH.Cart)
			term.PUT("/customer", terminalH.Customer)
			term.POST("/tenders/select", terminalH.SelectTender)
			term.POST("/tenders", terminalH.ApplyTender)
			term.DELETE("/tenders/:idx", terminalH.RemoveTender)
			term.POST("/finalize", terminalH.Finalize)
			term.POST("/cancel", terminalH.Cancel)
		}

		fiscal := v1.Group("/fiscal", supervisorUp)
		{
			fiscal.GET("/:id", fiscalH.Status)
			fiscal.POST("/:id/retry", fiscalH.Retry)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
