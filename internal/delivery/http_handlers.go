package delivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"adlens/internal/domain"
	"adlens/internal/usecase"
	"adlens/pkg/logger"
	"adlens/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handles HTTP requests
type HTTPHandlers struct {
	insightService *usecase.InsightService
	ingestService  *usecase.IngestService
	registry       *usecase.MetricRegistry
	logger         *logger.Logger
	metrics        *metrics.Metrics
}

// creates new HTTP handlers
func NewHTTPHandlers(
	insightService *usecase.InsightService,
	ingestService *usecase.IngestService,
	registry *usecase.MetricRegistry,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *HTTPHandlers {
	return &HTTPHandlers{
		insightService: insightService,
		ingestService:  ingestService,
		registry:       registry,
		logger:         logger,
		metrics:        metrics,
	}
}

// requestContext seeds the request context with tracing identifiers.
func (h *HTTPHandlers) requestContext(c *gin.Context, workspaceID string) (context.Context, string) {
	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = uuid.New().String()
	}
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
	if workspaceID != "" {
		ctx = context.WithValue(ctx, logger.WorkspaceIDKey, workspaceID)
	}
	return ctx, requestID
}

// badRequest reports whether the error is a caller mistake rather than a
// server failure.
func badRequest(err error) bool {
	var validationErr *domain.ValidationError
	var timeRangeErr *domain.InvalidTimeRangeError
	return errors.As(err, &validationErr) || errors.As(err, &timeRangeErr)
}

// AnswerQuery compiles and executes an analytics query for one workspace.
func (h *HTTPHandlers) AnswerQuery(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	workspaceID := c.GetHeader("X-Workspace-ID")
	ctx, requestID := h.requestContext(c, workspaceID)

	if workspaceID == "" {
		h.metrics.RecordHTTPRequest("POST", "/insights/query", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Missing required header",
			"message":    "X-Workspace-ID header is required",
			"request_id": requestID,
		})
		return
	}

	var query domain.Query
	if err := c.ShouldBindJSON(&query); err != nil {
		h.metrics.RecordHTTPRequest("POST", "/insights/query", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	response, err := h.insightService.Answer(ctx, workspaceID, query)
	if err != nil {
		if badRequest(err) {
			h.metrics.RecordHTTPRequest("POST", "/insights/query", "400", time.Since(start))
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Invalid query",
				"message":    err.Error(),
				"request_id": requestID,
			})
			return
		}
		h.metrics.RecordHTTPRequest("POST", "/insights/query", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to answer query")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Query execution failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("POST", "/insights/query", "200", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"result":     response.Result,
		"render":     response.Render,
		"request_id": requestID,
	})
}

// GetMetricCatalog lists every metric the registry can compute.
func (h *HTTPHandlers) GetMetricCatalog(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	_, requestID := h.requestContext(c, "")

	catalog := make([]gin.H, 0)
	for _, name := range h.registry.Names() {
		spec, ok := h.registry.Lookup(name)
		if !ok {
			continue
		}
		catalog = append(catalog, gin.H{
			"name":        spec.Name,
			"description": spec.Description,
			"derived":     spec.Derived,
			"inverse":     spec.Inverse,
			"depends_on":  spec.Bases,
		})
	}

	h.metrics.RecordHTTPRequest("GET", "/insights/metrics", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"metrics":    catalog,
		"request_id": requestID,
	})
}

type ingestFactsRequest struct {
	Facts []domain.Fact `json:"facts"`
}

// IngestFacts upserts fact rows for one workspace.
func (h *HTTPHandlers) IngestFacts(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	workspaceID := c.GetHeader("X-Workspace-ID")
	ctx, requestID := h.requestContext(c, workspaceID)

	if workspaceID == "" {
		h.metrics.RecordHTTPRequest("POST", "/facts", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Missing required header",
			"message":    "X-Workspace-ID header is required",
			"request_id": requestID,
		})
		return
	}

	var req ingestFactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordHTTPRequest("POST", "/facts", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	if err := h.ingestService.IngestFacts(ctx, workspaceID, req.Facts); err != nil {
		if badRequest(err) {
			h.metrics.RecordHTTPRequest("POST", "/facts", "400", time.Since(start))
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Invalid facts",
				"message":    err.Error(),
				"request_id": requestID,
			})
			return
		}
		h.metrics.RecordHTTPRequest("POST", "/facts", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to ingest facts")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Fact ingestion failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("POST", "/facts", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"message":    "Facts ingested successfully",
		"count":      len(req.Facts),
		"request_id": requestID,
	})
}

type ingestEntitiesRequest struct {
	Entities []domain.Entity `json:"entities"`
}

// IngestEntities upserts catalog entities for one workspace.
func (h *HTTPHandlers) IngestEntities(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	workspaceID := c.GetHeader("X-Workspace-ID")
	ctx, requestID := h.requestContext(c, workspaceID)

	if workspaceID == "" {
		h.metrics.RecordHTTPRequest("POST", "/entities", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Missing required header",
			"message":    "X-Workspace-ID header is required",
			"request_id": requestID,
		})
		return
	}

	var req ingestEntitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordHTTPRequest("POST", "/entities", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	if err := h.ingestService.IngestEntities(ctx, workspaceID, req.Entities); err != nil {
		if badRequest(err) {
			h.metrics.RecordHTTPRequest("POST", "/entities", "400", time.Since(start))
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Invalid entities",
				"message":    err.Error(),
				"request_id": requestID,
			})
			return
		}
		h.metrics.RecordHTTPRequest("POST", "/entities", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to ingest entities")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Entity ingestion failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("POST", "/entities", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"message":    "Entities ingested successfully",
		"count":      len(req.Entities),
		"request_id": requestID,
	})
}

// GetAPIInfo returns API v1 information and available endpoints
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	_, requestID := h.requestContext(c, "")

	apiInfo := gin.H{
		"api_version": "v1",
		"service":     "AdLens Insights",
		"version":     "1.0.0",
		"description": "Metric query compilation and aggregation for ad analytics",
		"endpoints": gin.H{
			"insights": gin.H{
				"query": gin.H{
					"path":        "/api/v1/insights/query",
					"method":      "POST",
					"description": "Compile and execute an analytics query",
					"headers": gin.H{
						"X-Workspace-ID": "Required: workspace to query",
					},
				},
				"metrics": gin.H{
					"path":        "/api/v1/insights/metrics",
					"method":      "GET",
					"description": "List base measures and derived metric formulas",
				},
			},
			"ingest": gin.H{
				"facts": gin.H{
					"path":        "/api/v1/facts",
					"method":      "POST",
					"description": "Upsert daily or hourly fact rows",
					"headers": gin.H{
						"X-Workspace-ID": "Required: workspace to write",
					},
				},
				"entities": gin.H{
					"path":        "/api/v1/entities",
					"method":      "POST",
					"description": "Upsert the campaign/adset/ad entity catalog",
					"headers": gin.H{
						"X-Workspace-ID": "Required: workspace to write",
					},
				},
			},
		},
		"request_id": requestID,
	}

	h.metrics.RecordHTTPRequest("GET", "/api/v1", "200", time.Since(start))
	c.JSON(http.StatusOK, apiInfo)
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	_, requestID := h.requestContext(c, "")

	health := gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "adlens",
		"version":    "1.0.0",
		"request_id": requestID,
	}

	h.metrics.RecordHTTPRequest("GET", "/health", "200", time.Since(start))
	c.JSON(http.StatusOK, health)
}
