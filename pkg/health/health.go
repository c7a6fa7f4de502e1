// Package health runs liveness and readiness probes and serves their results
// over HTTP.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/lewisedginton/health_companion/pkg/logger"
)

// Check is a single probe. A nil error means healthy.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

type checkFunc struct {
	name string
	fn   func(context.Context) error
}

func (c checkFunc) Name() string                    { return c.name }
func (c checkFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckFunc adapts a plain function to the Check interface.
func CheckFunc(name string, fn func(context.Context) error) Check {
	return checkFunc{name: name, fn: fn}
}

// Result is the outcome of one check run.
type Result struct {
	Name     string
	Healthy  bool
	Error    string
	Failures int
	Latency  time.Duration
}

// Report aggregates the results of a probe.
type Report struct {
	Healthy bool
	Results []Result
	err     error
}

// Err returns the combined errors of the failing checks, or nil.
func (r Report) Err() error {
	return r.err
}

// Checker owns the registered checks and their consecutive failure counters.
type Checker struct {
	mu        sync.Mutex
	liveness  []Check
	readiness []Check
	failures  map[string]int

	timeout   time.Duration
	threshold int
	log       logger.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout bounds each individual check. Default 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithFailureThreshold sets how many consecutive failures a check needs before
// it is reported unhealthy. Default 3.
func WithFailureThreshold(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithLogger sets the logger used to report failing checks.
func WithLogger(l logger.Logger) Option {
	return func(c *Checker) {
		c.log = l
	}
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	c := &Checker{
		failures:  make(map[string]int),
		timeout:   5 * time.Second,
		threshold: 3,
		log:       logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddLivenessCheck registers a check that decides whether the process should be restarted.
func (c *Checker) AddLivenessCheck(chk Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveness = append(c.liveness, chk)
}

// AddReadinessCheck registers a check that decides whether the process can take traffic.
func (c *Checker) AddReadinessCheck(chk Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readiness = append(c.readiness, chk)
}

// Liveness runs the liveness checks.
func (c *Checker) Liveness(ctx context.Context) Report {
	c.mu.Lock()
	checks := append([]Check(nil), c.liveness...)
	c.mu.Unlock()
	return c.run(ctx, checks)
}

// Readiness runs the readiness checks.
func (c *Checker) Readiness(ctx context.Context) Report {
	c.mu.Lock()
	checks := append([]Check(nil), c.readiness...)
	c.mu.Unlock()
	return c.run(ctx, checks)
}

func (c *Checker) run(ctx context.Context, checks []Check) Report {
	results := make([]Result, len(checks))

	var wg sync.WaitGroup
	for i, chk := range checks {
		wg.Add(1)
		go func(i int, chk Check) {
			defer wg.Done()
			results[i] = c.runOne(ctx, chk)
		}(i, chk)
	}
	wg.Wait()

	report := Report{Healthy: true, Results: results}
	var errs *multierror.Error
	for _, r := range results {
		if !r.Healthy {
			report.Healthy = false
			errs = multierror.Append(errs, fmt.Errorf("%s: %s", r.Name, r.Error))
		}
	}
	report.err = errs.ErrorOrNil()
	return report
}

func (c *Checker) runOne(parent context.Context, chk Check) Result {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	start := time.Now()
	err := chk.Check(ctx)
	res := Result{Name: chk.Name(), Healthy: true, Latency: time.Since(start)}

	c.mu.Lock()
	if err == nil {
		c.failures[res.Name] = 0
	} else {
		c.failures[res.Name]++
	}
	res.Failures = c.failures[res.Name]
	c.mu.Unlock()

	if err == nil {
		return res
	}

	fields := []logger.LogField{
		logger.StringField("check", res.Name),
		logger.ErrorField(err),
		logger.IntField("failures", res.Failures),
		logger.DurationField("latency", res.Latency),
	}
	if res.Failures < c.threshold {
		c.log.Debug("Health check failed below threshold", fields...)
		return res
	}

	c.log.Warn("Health check failed", fields...)
	res.Healthy = false
	res.Error = err.Error()
	return res
}
