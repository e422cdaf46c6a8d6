package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zulandar/shopfloor/internal/tracker"
)

// scanRequest is the body of every scan endpoint. Each station fills the one
// identifier it scans.
type scanRequest struct {
	PartNumber    string `json:"partNumber"`
	Barcode       string `json:"barcode"`
	ProductNumber string `json:"productNumber"`
	Station       string `json:"station"`
	Operator      string `json:"operator"`
}

func (r scanRequest) opts() tracker.ScanOpts {
	return tracker.ScanOpts{Station: r.Station, Operator: r.Operator}
}

// errorResponse is returned for every rejected request.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	t := opts.Tracker

	api := router.Group("/api")
	api.POST("/sorting/scan", handleScan(func(c *gin.Context, req scanRequest) (any, error) {
		return t.ScanForSort(c.Request.Context(), req.PartNumber, req.opts())
	}, func(r scanRequest) string { return r.PartNumber }))
	api.POST("/cutting/scan", handleScan(func(c *gin.Context, req scanRequest) (any, error) {
		return t.ScanSheetCut(c.Request.Context(), req.Barcode, req.opts())
	}, func(r scanRequest) string { return r.Barcode }))
	api.POST("/assembly/complete", handleScan(func(c *gin.Context, req scanRequest) (any, error) {
		return t.CompleteProductAssembly(c.Request.Context(), req.ProductNumber, req.opts())
	}, func(r scanRequest) string { return r.ProductNumber }))
	api.POST("/shipping/ship", handleScan(func(c *gin.Context, req scanRequest) (any, error) {
		return t.ShipProduct(c.Request.Context(), req.ProductNumber, req.opts())
	}, func(r scanRequest) string { return r.ProductNumber }))

	api.GET("/summary/sorting", handleSummary(func(c *gin.Context) (any, error) {
		return t.GetSortingSummary(c.Request.Context())
	}))
	api.GET("/summary/assembly", handleSummary(func(c *gin.Context) (any, error) {
		return t.GetAssemblySummary(c.Request.Context())
	}))
	api.GET("/events", handleSSE(opts.Hub))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"subscribers": opts.Hub.Subscribers(),
			"dropped":     opts.Hub.Dropped(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func handleScan(run func(*gin.Context, scanRequest) (any, error), key func(scanRequest) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "Request body must be JSON."})
			return
		}
		if key(req) == "" {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "Scan value is empty. Scan again."})
			return
		}
		res, err := run(c, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func handleSummary(load func(*gin.Context) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := load(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func writeError(c *gin.Context, err error) {
	kind, msg := tracker.Classify(err)
	c.JSON(statusFor(kind), errorResponse{Error: string(kind), Message: msg})
}

// statusFor maps an outcome kind to its HTTP status.
func statusFor(kind tracker.Kind) int {
	switch kind {
	case tracker.KindOK:
		return http.StatusOK
	case tracker.KindNotFound:
		return http.StatusNotFound
	case tracker.KindAlreadySorted, tracker.KindAlreadyComplete, tracker.KindAlreadyCut,
		tracker.KindInvalidTransition, tracker.KindNotComplete, tracker.KindConflict:
		return http.StatusConflict
	case tracker.KindNoSlotAvailable, tracker.KindNoPartsOnSheet, tracker.KindPartsNotReady:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
