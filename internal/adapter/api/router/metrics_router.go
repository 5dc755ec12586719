package router

import (
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpmetrics "github.com/slok/go-http-metrics/metrics/prometheus"
	httpmiddleware "github.com/slok/go-http-metrics/middleware"
	echometrics "github.com/slok/go-http-metrics/middleware/echo"
)

var (
	httpMetricsOnce sync.Once
	httpMetrics     httpmiddleware.Middleware
)

// requestMetrics records request count, latency and size per route. The recorder registers
// on the default registry, which allows it once per process.
func requestMetrics() echo.MiddlewareFunc {
	httpMetricsOnce.Do(func() {
		httpMetrics = httpmiddleware.New(httpmiddleware.Config{
			Recorder: httpmetrics.NewRecorder(httpmetrics.Config{}),
		})
	})
	return echometrics.Handler("", httpMetrics)
}

func SetupMetricsRouter(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
