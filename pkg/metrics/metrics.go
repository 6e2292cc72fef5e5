// Package metrics collects per-binary counters and periodically writes them to Redis,
// where the alert-service metrics endpoint reads them back.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MetricsKeyPrefix is the Redis key prefix for service metrics.
	MetricsKeyPrefix = "travel:metrics:"
	// MetricsTTL is how long metrics stay in Redis if not refreshed.
	MetricsTTL = 2 * time.Minute
	// DefaultReportInterval is the default interval for writing metrics to Redis.
	DefaultReportInterval = 30 * time.Second
)

// ServiceNames lists the binaries that report metrics.
var ServiceNames = []string{
	"alert-service",
	"alert-worker",
}

// ServiceMetrics holds metrics for a single service.
type ServiceMetrics struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"` // "healthy", "unhealthy" or "offline"

	// Counters since start. A request is an HTTP call or a refresh event.
	RequestsReceived       uint64 `json:"requests_received"`
	RequestsCompleted      uint64 `json:"requests_completed"`
	NotificationsPublished uint64 `json:"notifications_published"`
	Errors                 uint64 `json:"errors"`

	RequestsPerSecond float64 `json:"requests_per_second"`
	AvgLatencyNs      float64 `json:"avg_latency_ns"`

	CustomCounters map[string]uint64 `json:"custom_counters,omitempty"`
}

// Collector collects and reports metrics for a service.
type Collector struct {
	serviceName    string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	received  atomic.Uint64
	completed atomic.Uint64
	published atomic.Uint64
	errors    atomic.Uint64

	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64

	rateMu             sync.Mutex
	lastReportTime     time.Time
	lastCompletedCount uint64

	customMu       sync.RWMutex
	customCounters map[string]*atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCollector creates a new metrics collector. A nil Redis client keeps counters in memory only.
func NewCollector(serviceName string, redisClient *redis.Client) *Collector {
	now := time.Now().UTC()
	return &Collector{
		serviceName:    serviceName,
		redis:          redisClient,
		startedAt:      now,
		reportInterval: DefaultReportInterval,
		lastReportTime: now,
		customCounters: make(map[string]*atomic.Uint64),
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval sets the interval for writing metrics to Redis.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start begins the periodic metrics reporting to Redis.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.writeMetrics(context.Background())
				return
			case <-c.stopCh:
				c.writeMetrics(context.Background())
				return
			case <-ticker.C:
				c.writeMetrics(ctx)
			}
		}
	}()
}

// Stop stops the metrics reporting and flushes a final write. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// RecordReceived counts an incoming request.
func (c *Collector) RecordReceived() {
	c.received.Add(1)
}

// RecordProcessed counts a completed request and its latency.
func (c *Collector) RecordProcessed(latency time.Duration) {
	c.completed.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
}

// RecordPublished counts a notification handed to a transport.
func (c *Collector) RecordPublished() {
	c.published.Add(1)
}

// RecordError counts a failed request.
func (c *Collector) RecordError() {
	c.errors.Add(1)
}

// IncrementCustom increments a custom counter by name.
func (c *Collector) IncrementCustom(name string) {
	c.AddCustom(name, 1)
}

// AddCustom adds a value to a custom counter.
func (c *Collector) AddCustom(name string, value uint64) {
	c.customMu.RLock()
	counter, exists := c.customCounters[name]
	c.customMu.RUnlock()

	if !exists {
		c.customMu.Lock()
		if counter, exists = c.customCounters[name]; !exists {
			counter = &atomic.Uint64{}
			c.customCounters[name] = counter
		}
		c.customMu.Unlock()
	}
	counter.Add(value)
}

// GetSnapshot returns current metrics without writing to Redis.
func (c *Collector) GetSnapshot() *ServiceMetrics {
	now := time.Now().UTC()
	completed := c.completed.Load()

	c.rateMu.Lock()
	elapsed := now.Sub(c.lastReportTime).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(completed-c.lastCompletedCount) / elapsed
	}
	c.rateMu.Unlock()

	var avgLatencyNs float64
	if n := c.latencyCount.Load(); n > 0 {
		avgLatencyNs = float64(c.totalLatencyNs.Load()) / float64(n)
	}

	c.customMu.RLock()
	customCounters := make(map[string]uint64, len(c.customCounters))
	for name, counter := range c.customCounters {
		customCounters[name] = counter.Load()
	}
	c.customMu.RUnlock()

	return &ServiceMetrics{
		ServiceName:            c.serviceName,
		StartedAt:              c.startedAt,
		LastUpdated:            now,
		Status:                 "healthy",
		RequestsReceived:       c.received.Load(),
		RequestsCompleted:      completed,
		NotificationsPublished: c.published.Load(),
		Errors:                 c.errors.Load(),
		RequestsPerSecond:      rate,
		AvgLatencyNs:           avgLatencyNs,
		CustomCounters:         customCounters,
	}
}

func (c *Collector) writeMetrics(ctx context.Context) {
	if c.redis == nil {
		return
	}

	snapshot := c.GetSnapshot()

	c.rateMu.Lock()
	c.lastReportTime = snapshot.LastUpdated
	c.lastCompletedCount = snapshot.RequestsCompleted
	c.rateMu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("Failed to marshal metrics", "service", c.serviceName, "error", err)
		return
	}

	key := MetricsKeyPrefix + c.serviceName
	if err := c.redis.Set(ctx, key, data, MetricsTTL).Err(); err != nil {
		slog.Error("Failed to write metrics to Redis", "service", c.serviceName, "error", err)
		return
	}

	slog.Debug("Metrics written to Redis", "service", c.serviceName, "key", key)
}

// Reader reads service metrics from Redis.
type Reader struct {
	redis *redis.Client
}

// NewReader creates a new metrics reader.
func NewReader(redisClient *redis.Client) *Reader {
	return &Reader{redis: redisClient}
}

// GetServiceMetrics retrieves metrics for a specific service.
func (r *Reader) GetServiceMetrics(ctx context.Context, serviceName string) (*ServiceMetrics, error) {
	key := MetricsKeyPrefix + serviceName
	data, err := r.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("no metrics found for service: %s", serviceName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	var m ServiceMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}

	if time.Since(m.LastUpdated) > MetricsTTL {
		m.Status = "unhealthy"
	}

	return &m, nil
}

// GetAllServiceMetrics retrieves metrics for every service that has reported.
func (r *Reader) GetAllServiceMetrics(ctx context.Context) (map[string]*ServiceMetrics, error) {
	var keys []string
	iter := r.redis.Scan(ctx, 0, MetricsKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list metrics keys: %w", err)
	}
	sort.Strings(keys)

	result := make(map[string]*ServiceMetrics, len(keys))
	for _, key := range keys {
		serviceName := key[len(MetricsKeyPrefix):]
		m, err := r.GetServiceMetrics(ctx, serviceName)
		if err != nil {
			slog.Warn("Failed to read metrics for service", "service", serviceName, "error", err)
			continue
		}
		result[serviceName] = m
	}

	return result, nil
}
