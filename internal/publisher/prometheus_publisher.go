package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kuretru/quatt-gateway/entity"
	"github.com/kuretru/quatt-gateway/internal/database"
	"github.com/kuretru/quatt-gateway/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultPrometheusListen = ":9101"

// PrometheusPublisher exposes every numeric and boolean record as a gauge.
type PrometheusPublisher struct {
	db       *database.Database
	registry *prometheus.Registry

	entityValue *prometheus.GaugeVec
	server      *http.Server
	unsubscribe func()
}

func newEntityValueGauge() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "quatt_entity_value",
		Help: "Current value of a Quatt entity, booleans as 0/1",
	}, []string{"entity_id", "unit"})
}

func (publisher *PrometheusPublisher) Run(ctx context.Context, config *entity.PublisherConfig) error {
	listen := defaultPrometheusListen
	if config.Prometheus != nil && config.Prometheus.Listen != "" {
		listen = config.Prometheus.Listen
	}
	if publisher.registry == nil {
		publisher.registry = prometheus.NewRegistry()
	}
	publisher.entityValue = newEntityValueGauge()
	if err := publisher.registry.Register(publisher.entityValue); err != nil {
		return fmt.Errorf("Publisher.Prometheus: register gauge failed, %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(publisher.registry, promhttp.HandlerOpts{}))
	publisher.server = &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := publisher.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Publisher.Prometheus: serve failed", "listen", listen, "err", err)
		}
	}()

	changes, unsubscribe := publisher.db.Subscribe()
	publisher.unsubscribe = unsubscribe
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				publisher.update(ctx)
			}
		}
	}()
	slog.Info("Publisher.Prometheus: initialized", "listen", listen)
	return nil
}

func (publisher *PrometheusPublisher) Stop(ctx context.Context) {
	if publisher.unsubscribe != nil {
		publisher.unsubscribe()
	}
	if publisher.server != nil {
		if err := publisher.server.Shutdown(ctx); err != nil {
			slog.Warn("Publisher.Prometheus: shutdown failed", "err", err)
		}
	}
	slog.Info("Publisher.Prometheus: stopped")
}

// update rebuilds the gauge so entities that disappeared are dropped too.
func (publisher *PrometheusPublisher) update(ctx context.Context) {
	publisher.entityValue.Reset()
	for _, record := range publisher.db.GetAllRecords(ctx) {
		value, ok := gaugeValue(record.Value)
		if !ok {
			continue
		}
		unit, _ := record.Attributes["unit_of_measurement"].(string)
		publisher.entityValue.WithLabelValues(record.EntityID, unit).Set(value)
	}
}

func gaugeValue(value any) (float64, bool) {
	if b, ok := value.(bool); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	if _, ok := value.(string); ok {
		return 0, false
	}
	return utils.ToFloat64(value)
}
