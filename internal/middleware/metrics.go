package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	promMu        sync.Mutex
	promInstances = map[string]*fiberprometheus.FiberPrometheus{}
)

// InitMetrics returns the HTTP metrics collector for serviceName. Collectors
// register with the default Prometheus registry, so one instance per service
// name is shared for the life of the process.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promMu.Lock()
	defer promMu.Unlock()
	if p, ok := promInstances[serviceName]; ok {
		return p
	}
	p := fiberprometheus.New(serviceName)
	promInstances[serviceName] = p
	return p
}

// MetricsMiddleware records request metrics through prom.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
