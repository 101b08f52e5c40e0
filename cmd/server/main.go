package main

import (
	"fmt"
	"os"

	"adlens/internal/delivery"
	"adlens/internal/infrastructure"
	"adlens/internal/usecase"
	"adlens/pkg/config"
	"adlens/pkg/logger"
	"adlens/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("Starting adlens server")

	m := metrics.New()

	// Stores
	entityRepo := infrastructure.NewEntityRepository(log)
	factRepo := infrastructure.NewFactRepository(entityRepo, log)

	// Query compilation pipeline
	registry := usecase.NewMetricRegistry()
	timeRange := usecase.NewTimeRangeResolver()
	planner := usecase.NewQueryPlanner(timeRange, registry)
	cache := usecase.NewCatalogCache()
	hierarchy := usecase.NewEntityHierarchyResolver(entityRepo, cache, log)
	engine := usecase.NewAggregationEngine(factRepo, registry, log, m)
	classifier := usecase.NewVisualIntentClassifier()

	insightService := usecase.NewInsightService(planner, hierarchy, engine, classifier, log, m)
	ingestService := usecase.NewIngestService(factRepo, entityRepo, cache, log, m)

	handlers := delivery.NewHTTPHandlers(insightService, ingestService, registry, log, m)
	router := delivery.NewHTTPRouter(handlers, cfg, log, m)

	srv := router.SetupRoutes()

	addr := ":" + cfg.Server.Port
	log.WithField("addr", addr).Info("Listening")
	if err := srv.Run(addr); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}
