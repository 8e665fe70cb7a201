package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"intelidoc/internal/ai"
	appsvc "intelidoc/internal/app"
	"intelidoc/internal/bootstrap"
	"intelidoc/internal/cache"
	"intelidoc/internal/grc"
	"intelidoc/internal/nlp"
	rabbitmqClient "intelidoc/internal/platform/rabbitmq"
	"intelidoc/internal/repository"
	"intelidoc/internal/transport/http/handler"
	"intelidoc/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	docRepo := repository.NewDocumentRepository(app.MySQL)
	obligationRepo := repository.NewObligationRepository(app.MySQL)
	mappingRepo := repository.NewMappingRepository(app.MySQL)

	chatConfig := ai.ChatConfig{
		BaseURL:     app.Config.LLM.BaseURL,
		APIKey:      app.Config.LLM.APIKey,
		Model:       app.Config.LLM.Model,
		Temperature: app.Config.LLM.Temperature,
		MaxTokens:   app.Config.LLM.MaxTokens,
	}

	reportCache := cache.NewReportCache(
		app.Redis,
		time.Duration(app.Config.Redis.ReportTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.ReportDirtyTTLSeconds)*time.Second,
	)
	publisher := rabbitmqClient.NewIndexPublisher(app.MQConn, app.Config.RabbitMQ.IndexUpsertQueue)
	extractor := &nlp.Extractor{MinClauseTokens: app.Config.Extraction.MinClauseTokens}
	detector := grc.NewDetector(
		time.Duration(app.Config.GRC.RecencyWindowHours)*time.Hour,
		app.Config.GRC.HighStakesFrameworks,
	)

	documentService := appsvc.NewDocumentService(docRepo, obligationRepo, extractor, publisher, reportCache, chatConfig, app.Config.Extraction.UseLLM)
	obligationService := appsvc.NewObligationService(obligationRepo, app.SearchIndex, publisher, reportCache)
	mappingService := appsvc.NewMappingService(mappingRepo, obligationRepo, reportCache)
	searchService := appsvc.NewSearchService(app.SearchIndex, obligationRepo)
	reportService := appsvc.NewReportService(detector, obligationRepo, mappingRepo, reportCache, nil)
	summaryService := appsvc.NewSummaryService(chatConfig)
	insightService := appsvc.NewInsightService(obligationRepo, mappingRepo)

	documentHandler := handler.NewDocumentHandler(documentService)
	obligationHandler := handler.NewObligationHandler(obligationService)
	mappingHandler := handler.NewMappingHandler(mappingService)
	searchHandler := handler.NewSearchHandler(searchService)
	crossPlatformHandler := handler.NewCrossPlatformHandler(reportService)
	aiHandler := handler.NewAIHandler(summaryService, insightService)

	v1 := router.Group("/api/v1")

	docs := v1.Group("/documents")
	docs.POST("", documentHandler.Create)
	docs.POST("/upload", documentHandler.Upload)
	docs.GET("", documentHandler.List)
	docs.GET("/:id", documentHandler.Get)

	obligations := v1.Group("/obligations")
	obligations.GET("", obligationHandler.List)
	obligations.GET("/:id", obligationHandler.Get)
	obligations.PUT("/:id", obligationHandler.Update)
	obligations.DELETE("/:id", obligationHandler.Delete)
	obligations.GET("/:id/mappings", mappingHandler.ListByObligation)

	mappings := v1.Group("/mappings")
	mappings.POST("", mappingHandler.Create)
	mappings.GET("", mappingHandler.List)
	mappings.DELETE("/:id", mappingHandler.Delete)

	v1.GET("/search", searchHandler.Search)

	aiGroup := v1.Group("/ai")
	aiGroup.POST("/summarize", aiHandler.Summarize)

	v1.GET("/reports/gap-analysis", aiHandler.GapAnalysis)
	v1.GET("/reports/mapping-summary", aiHandler.MappingSummary)

	crossPlatform := v1.Group("/cross-platform")
	crossPlatform.GET("/monitor", crossPlatformHandler.Monitor)
	crossPlatform.GET("/grc-validation", crossPlatformHandler.GRCValidation)
	crossPlatform.GET("/intelligence-report", crossPlatformHandler.IntelligenceReport)
	crossPlatform.GET("/activity-feed", crossPlatformHandler.ActivityFeed)

	return router
}
