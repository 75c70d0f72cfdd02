package publisher

import (
	"context"
	"fmt"

	"github.com/kuretru/quatt-gateway/entity"
	"github.com/kuretru/quatt-gateway/internal/collector"
	"github.com/kuretru/quatt-gateway/internal/database"
	"github.com/prometheus/client_golang/prometheus"
)

type QuattPublisher interface {
	Run(ctx context.Context, config *entity.PublisherConfig) error
	Stop(ctx context.Context)
}

// Dependencies are shared by every publisher.
type Dependencies struct {
	DB        *database.Database
	Commander collector.Commander
	Registry  *prometheus.Registry
}

type Publishers struct {
	publishers []QuattPublisher
}

func Init(ctx context.Context, configs []*entity.PublisherConfig, deps Dependencies) (*Publishers, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("publisher config is empty")
	}

	result := &Publishers{publishers: make([]QuattPublisher, 0, len(configs))}
	for _, config := range configs {
		var publisher QuattPublisher
		switch config.Type {
		case "hass_mqtt":
			publisher = &HomeAssistantMQTTPublisher{db: deps.DB, commander: deps.Commander}
		case "prometheus":
			publisher = &PrometheusPublisher{db: deps.DB, registry: deps.Registry}
		default:
			result.Stop(ctx)
			return nil, fmt.Errorf("unknown publisher type %v", config.Type)
		}

		if err := publisher.Run(ctx, config); err != nil {
			result.Stop(ctx)
			return nil, fmt.Errorf("publisher: run %v publisher failed, %w", config.Type, err)
		}
		result.publishers = append(result.publishers, publisher)
	}
	return result, nil
}

func (p *Publishers) Stop(ctx context.Context) {
	for _, publisher := range p.publishers {
		publisher.Stop(ctx)
	}
}
