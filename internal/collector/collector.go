package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kuretru/quatt-gateway/entity"
	"github.com/kuretru/quatt-gateway/internal/database"
	"github.com/kuretru/quatt-gateway/internal/quatt"
)

const (
	DefaultScanInterval = 10 * time.Second
	MinScanInterval     = 5 * time.Second
	MaxScanInterval     = 600 * time.Second
)

// ErrNoCommander is returned when a command arrives but no collector can execute it.
var ErrNoCommander = errors.New("no collector accepts commands")

type QuattCollector interface {
	Name() string
	Run(ctx context.Context, config *entity.CollectorConfig) error
	Stop(ctx context.Context)
}

// Commander executes commands coming back from a publisher.
type Commander interface {
	SendCommand(ctx context.Context, command *entity.Command) error
}

type feedSource interface {
	GetData(ctx context.Context) (quatt.Feed, error)
}

// prober is a collector that can be set up and polled once without its loop.
type prober interface {
	QuattCollector
	setup(ctx context.Context, config *entity.CollectorConfig) error
	poll(ctx context.Context) error
}

// Collectors 所有已启动的采集器
type Collectors struct {
	collectors []QuattCollector
}

func Init(ctx context.Context, configs []*entity.CollectorConfig, db *database.Database, metrics *Metrics) (*Collectors, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("collector config is empty")
	}

	result := &Collectors{collectors: make([]QuattCollector, 0, len(configs))}
	for _, config := range configs {
		if config == nil {
			return nil, fmt.Errorf("collector config is nil")
		}

		collector, err := newCollector(config.Type, db, metrics)
		if err != nil {
			result.Stop(ctx)
			return nil, err
		}

		if err := collector.Run(ctx, config); err != nil {
			result.Stop(ctx)
			return nil, fmt.Errorf("collector: run %v collector failed, %w", config.Type, err)
		}
		slog.Info("Collector: initialized", "type", config.Type, "name", collector.Name())
		result.collectors = append(result.collectors, collector)
	}
	return result, nil
}

func newCollector(collectorType string, db *database.Database, metrics *Metrics) (prober, error) {
	switch collectorType {
	case "local":
		return &LocalCollector{db: db, metrics: metrics}, nil
	case "remote":
		return &RemoteCollector{db: db, metrics: metrics}, nil
	}
	return nil, fmt.Errorf("unknown collector type %v", collectorType)
}

// Probe polls every configured collector once, in order, leaving the records in db.
// The local collector's power_sensor can therefore name an entity of an earlier remote collector.
func Probe(ctx context.Context, configs []*entity.CollectorConfig, db *database.Database) error {
	for _, config := range configs {
		if config == nil {
			continue
		}
		collector, err := newCollector(config.Type, db, nil)
		if err != nil {
			return err
		}
		if err = collector.setup(ctx, config); err != nil {
			return err
		}
		err = collector.poll(ctx)
		collector.Stop(ctx)
		if err != nil {
			return fmt.Errorf("collector: probe %v failed, %w", collector.Name(), err)
		}
	}
	return nil
}

// SendCommand hands command to the first collector that accepts commands.
func (c *Collectors) SendCommand(ctx context.Context, command *entity.Command) error {
	for _, collector := range c.collectors {
		if commander, ok := collector.(Commander); ok {
			return commander.SendCommand(ctx, command)
		}
	}
	return ErrNoCommander
}

func (c *Collectors) Stop(ctx context.Context) {
	for _, collector := range c.collectors {
		collector.Stop(ctx)
	}
}

// ScanInterval converts the configured seconds, falling back to the default and clamping to the allowed range.
func ScanInterval(seconds int) time.Duration {
	if seconds <= 0 {
		return DefaultScanInterval
	}
	interval := time.Duration(seconds) * time.Second
	return min(max(interval, MinScanInterval), MaxScanInterval)
}

// runPoller calls poll immediately and then on every tick until ctx is done.
func runPoller(ctx context.Context, interval time.Duration, poll func(ctx context.Context)) {
	poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll(ctx)
		}
	}
}
