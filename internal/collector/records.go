package collector

import (
	"context"
	"time"

	"github.com/kuretru/quatt-gateway/entity"
	"github.com/kuretru/quatt-gateway/internal/catalog"
	"github.com/kuretru/quatt-gateway/internal/database"
	"github.com/kuretru/quatt-gateway/internal/quatt"
)

// Attribute names on the system entity, read by the dashboard cards.
const (
	AttributeAllElectric = "All electric system"
	AttributeDuo         = "Duo heatpump system"
	AttributeOpentherm   = "Opentherm system"

	SystemEntityID       = "sensor.cic_system"
	RemoteSystemEntityID = "sensor.cic_system_remote"
)

// buildRecord turns a description and its resolved value into a state record
// carrying the attributes Home Assistant would show for it.
func buildRecord(description catalog.Description, value any, ok bool, now time.Time) *entity.StateRecord {
	if !ok {
		value = nil
	}
	attributes := map[string]any{
		"friendly_name": description.Device.DeviceName() + " " + description.Name,
	}
	if description.Unit != "" {
		attributes["unit_of_measurement"] = description.Unit
	}
	if description.DeviceClass != "" {
		attributes["device_class"] = description.DeviceClass
	}
	if description.StateClass != "" {
		attributes["state_class"] = description.StateClass
	}
	if description.Icon != "" {
		attributes["icon"] = description.Icon
	}
	if len(description.Options) > 0 {
		attributes["options"] = description.Options
	}
	return &entity.StateRecord{
		EntityID:    description.EntityID(),
		Value:       value,
		Attributes:  attributes,
		LastUpdated: now,
	}
}

func systemRecord(entityID string, topology quatt.Topology, now time.Time) *entity.StateRecord {
	state := "hybrid"
	if topology.AllElectric {
		state = "all-electric"
	}
	return &entity.StateRecord{
		EntityID: entityID,
		Value:    state,
		Attributes: map[string]any{
			"friendly_name":      "CIC System",
			AttributeAllElectric: topology.AllElectric,
			AttributeDuo:         topology.Heatpump2,
			AttributeOpentherm:   topology.Opentherm,
		},
		LastUpdated: now,
	}
}

// storeFeed writes every selected description plus the system entity and commits the batch.
func storeFeed(ctx context.Context, db *database.Database, source string, descriptions []catalog.Description,
	values func(key string) (any, bool), system *entity.StateRecord) int {
	now := system.LastUpdated
	for _, description := range descriptions {
		value, ok := values(description.Key)
		db.SetState(ctx, description.Device, source, buildRecord(description, value, ok, now))
	}
	db.SetState(ctx, entity.DeviceTypeHub, source, system)
	db.Commit(ctx)
	return len(descriptions) + 1
}
