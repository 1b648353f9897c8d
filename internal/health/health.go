// Package health runs component checks for keyjournal and aggregates them
// into an overall status.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status is the health of a component or of the whole journal.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Result is the outcome of one check.
type Result struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Error    string        `json:"error,omitempty"`
	Critical bool          `json:"critical"`
	Duration time.Duration `json:"duration_ns"`
}

// Check performs one health check.
type Check func(ctx context.Context) Result

// Component is a registered check.
type Component struct {
	Name     string
	Critical bool // an unhealthy critical component makes the journal unhealthy
	Check    Check
	Timeout  time.Duration
}

// Report is the aggregated outcome of a run.
type Report struct {
	Status    Status    `json:"status"`
	Results   []Result  `json:"results"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker holds registered components.
type Checker struct {
	mu         sync.Mutex
	components []*Component
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Register adds a component. A zero timeout becomes five seconds.
func (c *Checker) Register(comp *Component) {
	if comp.Timeout == 0 {
		comp.Timeout = 5 * time.Second
	}
	c.mu.Lock()
	c.components = append(c.components, comp)
	c.mu.Unlock()
}

// RegisterFunc registers check under name.
func (c *Checker) RegisterFunc(name string, critical bool, check Check) {
	c.Register(&Component{Name: name, Critical: critical, Check: check})
}

// Run executes every check concurrently and aggregates the results, sorted
// by component name.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.Lock()
	components := append([]*Component(nil), c.components...)
	c.mu.Unlock()

	results := make([]Result, len(components))
	var wg sync.WaitGroup
	for i, comp := range components {
		i, comp := i, comp
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = run(ctx, comp)
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return Report{
		Status:    Aggregate(results),
		Results:   results,
		CheckedAt: time.Now(),
	}
}

func run(ctx context.Context, comp *Component) Result {
	ctx, cancel := context.WithTimeout(ctx, comp.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Result{Status: StatusUnhealthy, Message: "check panicked", Error: fmt.Sprint(r)}
			}
		}()
		done <- comp.Check(ctx)
	}()

	var result Result
	select {
	case result = <-done:
	case <-ctx.Done():
		result = Result{Status: StatusUnhealthy, Message: "check timed out", Error: ctx.Err().Error()}
	}
	result.Name = comp.Name
	result.Critical = comp.Critical
	result.Duration = time.Since(start)
	return result
}

// Aggregate folds component results into one status. An unhealthy critical
// component is unhealthy overall; any other failure degrades.
func Aggregate(results []Result) Status {
	status := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			if r.Critical {
				return StatusUnhealthy
			}
			status = StatusDegraded
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Healthy returns a healthy result with message.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message}
}

// Degraded returns a degraded result with message.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message}
}

// Unhealthy returns an unhealthy result for err.
func Unhealthy(message string, err error) Result {
	r := Result{Status: StatusUnhealthy, Message: message}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
