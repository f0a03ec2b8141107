package metrics

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func resetRegistry() {
	initialized = false
	Registry = prometheus.NewRegistry()
}

func TestInit(t *testing.T) {
	resetRegistry()

	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	if !initialized {
		t.Error("Expected initialized to be true after Init()")
	}
}

func TestInit_MultipleCallsAreIdempotent(t *testing.T) {
	resetRegistry()

	if err := Init(); err != nil {
		t.Fatalf("First Init() failed: %v", err)
	}
	if err := Init(); err != nil {
		t.Errorf("Second Init() returned error: %v", err)
	}
}

func TestDatabaseMetrics_Registration(t *testing.T) {
	testRegistry := prometheus.NewRegistry()
	originalRegistry := Registry
	Registry = testRegistry
	defer func() { Registry = originalRegistry }()

	if err := registerDatabaseMetrics(); err != nil {
		t.Fatalf("registerDatabaseMetrics() failed: %v", err)
	}

	metrics, err := testRegistry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(metrics) == 0 {
		t.Error("Expected database metrics to be registered")
	}
}

func TestObserveQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueriesTotal.WithLabelValues("select", "success"))
	beforeErr := testutil.ToFloat64(DBQueriesTotal.WithLabelValues("select", "error"))

	ObserveQuery("select", time.Now(), nil)
	ObserveQuery("select", time.Now(), sql.ErrNoRows)
	ObserveQuery("select", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(DBQueriesTotal.WithLabelValues("select", "success")) - before; got != 2 {
		t.Errorf("Expected 2 successful queries (no rows is not a failure), got %v", got)
	}
	if got := testutil.ToFloat64(DBQueriesTotal.WithLabelValues("select", "error")) - beforeErr; got != 1 {
		t.Errorf("Expected 1 failed query, got %v", got)
	}
}

func TestRecordDBStats(t *testing.T) {
	RecordDBStats(sql.DBStats{MaxOpenConnections: 25, OpenConnections: 3, InUse: 1, Idle: 2})

	if got := testutil.ToFloat64(DBConnectionsOpen); got != 3 {
		t.Errorf("open = %v, want 3", got)
	}
	if got := testutil.ToFloat64(DBConnectionsIdle); got != 2 {
		t.Errorf("idle = %v, want 2", got)
	}
	if got := testutil.ToFloat64(DBConnectionsInUse); got != 1 {
		t.Errorf("in use = %v, want 1", got)
	}
	if got := testutil.ToFloat64(DBConnectionsMaxOpen); got != 25 {
		t.Errorf("max open = %v, want 25", got)
	}
}

func TestRecordRateLimit(t *testing.T) {
	blocked := testutil.ToFloat64(RateLimitBlocks.WithLabelValues("auth_failure"))

	RecordRateLimit("auth_failure", true)
	RecordRateLimit("auth_failure", false)

	if got := testutil.ToFloat64(RateLimitBlocks.WithLabelValues("auth_failure")) - blocked; got != 1 {
		t.Errorf("Expected 1 block, got %v", got)
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel(nil); got != "success" {
		t.Errorf("StatusLabel(nil) = %q", got)
	}
	if got := StatusLabel(errors.New("x")); got != "error" {
		t.Errorf("StatusLabel(err) = %q", got)
	}
}
