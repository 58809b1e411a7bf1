package admission

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultLimit         = 10
	DefaultWindow        = 10 * time.Minute
	DefaultSweepInterval = time.Minute
	DefaultTableSize     = 100_000
)

// Config controls the fixed window applied to every identifier.
type Config struct {
	Limit         int
	Window        time.Duration
	SweepInterval time.Duration
	// TableSize caps the number of tracked identifiers. When full, the least
	// recently seen identifier is dropped and starts over with a fresh window.
	TableSize int
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Decision is the outcome of a single Check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// RetryAfter returns the whole seconds a rejected caller should wait.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(d.ResetTime.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

type entry struct {
	count     int
	resetTime time.Time
}

// Controller is a fixed-window request counter keyed by caller identifier
// (typically the client IP). State is process local: several replicas or
// frequent restarts each enforce their own window.
type Controller struct {
	mu     sync.Mutex
	table  *lru.Cache[string, *entry]
	limit  int
	window time.Duration
	sweep  time.Duration
	now    func() time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// New builds a Controller. Zero config fields take the package defaults.
func New(cfg Config) (*Controller, error) {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.TableSize <= 0 {
		cfg.TableSize = DefaultTableSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	table, err := lru.New[string, *entry](cfg.TableSize)
	if err != nil {
		return nil, err
	}
	return &Controller{
		table:  table,
		limit:  cfg.Limit,
		window: cfg.Window,
		sweep:  cfg.SweepInterval,
		now:    cfg.Now,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Check counts one request for id and reports whether it is admitted.
// It never blocks on anything but the table mutex.
func (c *Controller) Check(id string) Decision {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.table.Get(id)
	if !ok || !now.Before(e.resetTime) {
		e = &entry{count: 1, resetTime: now.Add(c.window)}
		c.table.Add(id, e)
		return Decision{Allowed: true, Limit: c.limit, Remaining: c.limit - 1, ResetTime: e.resetTime}
	}
	if e.count >= c.limit {
		return Decision{Allowed: false, Limit: c.limit, Remaining: 0, ResetTime: e.resetTime}
	}
	e.count++
	return Decision{Allowed: true, Limit: c.limit, Remaining: c.limit - e.count, ResetTime: e.resetTime}
}

// Sweep drops every entry whose window has ended and returns how many were removed.
func (c *Controller) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, id := range c.table.Keys() {
		e, ok := c.table.Peek(id)
		if !ok {
			continue
		}
		if !now.Before(e.resetTime) {
			c.table.Remove(id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked identifiers.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table.Len()
}

// Start runs the periodic sweep until ctx is done or Stop is called.
func (c *Controller) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the sweep goroutine started by Start and waits for it.
// Calling Stop without Start is a no-op.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.started.Load() {
		<-c.done
	}
}
