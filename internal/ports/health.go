package ports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDuplicateChecker is returned when attempting to register a health checker
// with a name that is already registered.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// DefaultCheckTimeout bounds each individual health check.
const DefaultCheckTimeout = 2 * time.Second

// HealthChecker is implemented by components that can report their health.
// The storage adapters and the remote client register themselves at startup.
type HealthChecker interface {
	// Name returns a unique identifier for this health check.
	Name() string

	// Check performs the health check and returns an error if unhealthy.
	// A nil return indicates the component is healthy.
	Check(ctx context.Context) error
}

// HealthRegistry aggregates health checks from multiple components.
type HealthRegistry interface {
	// Register adds a health checker to the registry.
	// Returns an error if a checker with the same name is already registered.
	Register(checker HealthChecker) error

	// CheckAll runs all registered health checks and returns aggregated results.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus represents the overall health state.
type HealthStatus string

const (
	// HealthStatusHealthy indicates all checks passed.
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusDegraded indicates only non-critical checks failed.
	// The remote collaborator is optional, so its failure degrades rather than fails readiness.
	HealthStatusDegraded HealthStatus = "degraded"

	// HealthStatusUnhealthy indicates critical checks failed.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult contains the aggregated health check results.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

type registeredChecker struct {
	checker  HealthChecker
	optional bool
}

// DefaultHealthRegistry is a thread-safe implementation of HealthRegistry.
type DefaultHealthRegistry struct {
	mu       sync.RWMutex
	checkers []registeredChecker
	timeout  time.Duration
}

// NewHealthRegistry creates a new health registry.
func NewHealthRegistry() *DefaultHealthRegistry {
	return &DefaultHealthRegistry{
		checkers: make([]registeredChecker, 0),
		timeout:  DefaultCheckTimeout,
	}
}

// Register adds a critical health checker to the registry.
func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	return r.register(checker, false)
}

// RegisterOptional adds a checker whose failure only degrades the overall status.
func (r *DefaultHealthRegistry) RegisterOptional(checker HealthChecker) error {
	return r.register(checker, true)
}

func (r *DefaultHealthRegistry) register(checker HealthChecker, optional bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	for _, c := range r.checkers {
		if c.checker.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.checkers = append(r.checkers, registeredChecker{checker: checker, optional: optional})

	return nil
}

// CheckAll runs all registered health checks concurrently, each bounded by the check timeout.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := make([]registeredChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult),
		Timestamp: time.Now(),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, rc := range checkers {
		wg.Go(func() {
			checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			start := time.Now()
			err := rc.checker.Check(checkCtx)

			checkResult := &CheckResult{
				Status:   HealthStatusHealthy,
				Duration: time.Since(start),
			}

			if err != nil {
				checkResult.Status = HealthStatusUnhealthy
				checkResult.Message = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()

			result.Checks[rc.checker.Name()] = checkResult

			switch {
			case err == nil:
			case rc.optional:
				if result.Status == HealthStatusHealthy {
					result.Status = HealthStatusDegraded
				}
			default:
				result.Status = HealthStatusUnhealthy
			}
		})
	}

	wg.Wait()

	return result
}
