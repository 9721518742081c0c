// Package server wires services, handlers and middleware into the HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"spendwise/internal/config"
	_ "spendwise/internal/docs" // swagger docs
	"spendwise/internal/handlers"
	"spendwise/internal/middleware"
	"spendwise/internal/services"
	"spendwise/internal/validator"
)

// Options configures NewRouter.
type Options struct {
	APIKey             string
	ReapplyCategorized bool
	DefaultCurrency    string
	// RequestLogging enables per-request access logs.
	RequestLogging bool
	// Swagger serves the API documentation under /swagger.
	Swagger bool
}

// OptionsFromConfig derives router options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		APIKey:             cfg.APIKey,
		ReapplyCategorized: cfg.ReapplyCategorized,
		DefaultCurrency:    cfg.DefaultCurrency,
		RequestLogging:     true,
		Swagger:            cfg.Env != "production",
	}
}

// NewRouter builds the full API on top of db. It also registers the custom
// binding validators the handlers rely on.
func NewRouter(db *gorm.DB, opts Options) *gin.Engine {
	validator.Register()

	// Services
	profileService := services.NewProfileService(db)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	ruleService := services.NewRuleService(db, opts.ReapplyCategorized)
	transactionService := services.NewTransactionService(db, opts.DefaultCurrency)
	statsService := services.NewStatsService(db)

	// Handlers
	profileHandler := handlers.NewProfileHandler(profileService)
	accountHandler := handlers.NewAccountHandler(accountService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	ruleHandler := handlers.NewRuleHandler(ruleService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	statsHandler := handlers.NewStatsHandler(statsService)

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.RequestLogging {
		router.Use(middleware.RequestLogging())
	}
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.APIKeyAuth(opts.APIKey))

	profiles := v1.Group("/profiles")
	profiles.GET("", profileHandler.ListProfiles)
	profiles.POST("", profileHandler.CreateProfile)
	profiles.GET("/:id", profileHandler.GetProfile)
	profiles.PUT("/:id", profileHandler.UpdateProfile)
	profiles.DELETE("/:id", profileHandler.DeleteProfile)

	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/summary", accountHandler.GetAccountSummaries)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)

	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.POST("/init-defaults", categoryHandler.InitDefaults)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	rules := v1.Group("/rules")
	rules.GET("", ruleHandler.ListRules)
	rules.POST("", ruleHandler.CreateRule)
	rules.POST("/apply", ruleHandler.ApplyRules)
	rules.POST("/preview", ruleHandler.PreviewRules)
	rules.POST("/from-transaction/:id", ruleHandler.CreateRuleFromTransaction)
	rules.GET("/:id", ruleHandler.GetRule)
	rules.PUT("/:id", ruleHandler.UpdateRule)
	rules.DELETE("/:id", ruleHandler.DeleteRule)

	transactions := v1.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.POST("/manual", transactionHandler.CreateManualTransaction)
	transactions.POST("/bulk-categorize", transactionHandler.BulkCategorize)
	transactions.POST("/bulk-shared", transactionHandler.BulkSetShared)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/:id/split", transactionHandler.SplitTransaction)
	transactions.POST("/:id/classify", transactionHandler.ClassifyTransaction)

	statsGroup := v1.Group("/stats")
	statsGroup.GET("/summary", statsHandler.GetSummary)
	statsGroup.GET("/by-category", statsHandler.GetByCategory)
	statsGroup.GET("/over-time", statsHandler.GetOverTime)

	return router
}
