// Package metrics provides Prometheus metrics for the recipebox server.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the global Prometheus registry for all metrics.
	Registry = prometheus.NewRegistry()

	// initialized tracks whether metrics have been initialized.
	initialized = false
	initMu      sync.Mutex
)

// Init initializes the metrics registry with all collectors.
// This should be called once during application startup; repeated calls are no-ops.
func Init() error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return nil
	}

	if err := Registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if err := Registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return err
	}

	registrations := []func() error{
		registerHTTPMetrics,
		registerRateLimitMetrics,
		registerDatabaseMetrics,
		registerBusinessMetrics,
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}

	initialized = true
	return nil
}

// registerBusinessMetrics registers business-level metrics.
func registerBusinessMetrics() error {
	return register(
		UserRegistrations,
		TokensIssued,
		RecipeOperations,
		ImageUploads,
	)
}

func register(collectors ...prometheus.Collector) error {
	for _, c := range collectors {
		if err := Registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

var (
	// UserRegistrations counts user sign-ups by result.
	UserRegistrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_user_registrations_total",
			Help: "Total number of user registration attempts",
		},
		[]string{"status"},
	)

	// TokensIssued counts token requests by result (issued, invalid_credentials, throttled).
	TokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_tokens_total",
			Help: "Total number of access token requests",
		},
		[]string{"result"},
	)

	// RecipeOperations counts recipe operations.
	RecipeOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_recipe_operations_total",
			Help: "Total number of recipe operations",
		},
		[]string{"operation", "status"},
	)

	// ImageUploads counts recipe image uploads by result.
	ImageUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_image_uploads_total",
			Help: "Total number of recipe image uploads",
		},
		[]string{"status"},
	)
)

// StatusLabel converts an error into the "status" label value.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
