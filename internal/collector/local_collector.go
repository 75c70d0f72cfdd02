package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kuretru/quatt-gateway/entity"
	"github.com/kuretru/quatt-gateway/internal/catalog"
	"github.com/kuretru/quatt-gateway/internal/database"
	"github.com/kuretru/quatt-gateway/internal/quatt"
	"github.com/kuretru/quatt-gateway/internal/utils"
)

// LocalCollector polls the CIC's local feed.
type LocalCollector struct {
	db      *database.Database
	metrics *Metrics

	source      string
	client      feedSource
	powerSensor string
	now         func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (collector *LocalCollector) Name() string {
	return collector.source
}

func (collector *LocalCollector) setup(_ context.Context, config *entity.CollectorConfig) error {
	if config.Local == nil || config.Local.IPAddress == "" {
		return fmt.Errorf("Collector.Local: ip_address is required")
	}
	collector.source = "local:" + config.Local.IPAddress
	collector.client = quatt.NewLocalClient(config.Local.IPAddress)
	collector.powerSensor = config.Local.PowerSensor
	collector.now = time.Now
	return nil
}

func (collector *LocalCollector) Run(ctx context.Context, config *entity.CollectorConfig) error {
	if err := collector.setup(ctx, config); err != nil {
		return err
	}

	interval := ScanInterval(config.ScanInterval)
	ctx, collector.cancel = context.WithCancel(ctx)
	collector.wg.Add(1)
	go func() {
		defer collector.wg.Done()
		runPoller(ctx, interval, func(ctx context.Context) {
			_ = collector.poll(ctx)
		})
	}()
	slog.Info("Collector.Local: polling", "ip", config.Local.IPAddress, "interval", interval)
	return nil
}

func (collector *LocalCollector) Stop(_ context.Context) {
	if collector.cancel != nil {
		collector.cancel()
	}
	collector.wg.Wait()
	slog.Info("Collector.Local: stopped", "source", collector.source)
}

// poll fetches one feed. On failure the previous records stay in place.
func (collector *LocalCollector) poll(ctx context.Context) error {
	feed, err := collector.client.GetData(ctx)
	collector.metrics.observe(collector.source, err)
	if err != nil {
		slog.Error("Collector.Local: fetch feed failed", "source", collector.source, "err", err)
		return err
	}

	topology := quatt.DetectLocal(feed)
	computer := quatt.NewComputer(feed, topology, collector.electricalPower)
	count := storeFeed(ctx, collector.db, collector.source, catalog.Select(topology, false),
		computer.Value, systemRecord(SystemEntityID, topology, collector.now()))
	slog.Debug("Collector.Local: feed stored", "source", collector.source, "records", count,
		"heatpump2", topology.Heatpump2, "allElectric", topology.AllElectric, "opentherm", topology.Opentherm)
	return nil
}

// electricalPower reads the external power meter configured as power_sensor.
func (collector *LocalCollector) electricalPower() (float64, bool) {
	if collector.powerSensor == "" {
		return 0, false
	}
	record, ok := collector.db.State(collector.powerSensor)
	if !ok {
		return 0, false
	}
	return utils.ToFloat64(record.Value)
}
