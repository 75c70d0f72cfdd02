package database

import (
	"context"
	"testing"
	"time"

	"github.com/kuretru/quatt-gateway/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(now *time.Time) *Database {
	db := New()
	db.now = func() time.Time { return *now }
	return db
}

func TestSetStateCopies(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	db := newTestDatabase(&now)

	record := &entity.StateRecord{
		EntityID:   "sensor.cic_system",
		Value:      "ok",
		Attributes: map[string]any{"All electric system": false},
	}
	db.SetState(ctx, entity.DeviceTypeHub, "local", record)
	record.Attributes["All electric system"] = true

	stored, ok := db.State("sensor.cic_system")
	require.True(t, ok)
	assert.Equal(t, false, stored.Attributes["All electric system"])
	assert.Equal(t, now, stored.LastUpdated)

	stored.Attributes["All electric system"] = true
	again, _ := db.State("sensor.cic_system")
	assert.Equal(t, false, again.Attributes["All electric system"])

	_, ok = db.State("sensor.unknown")
	assert.False(t, ok)
}

func TestSetStateRejectsSourceChange(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	db := newTestDatabase(&now)

	db.SetState(ctx, entity.DeviceTypeHub, "local", &entity.StateRecord{EntityID: "sensor.cic_cop", Value: 3.5})
	db.SetState(ctx, entity.DeviceTypeHub, "remote", &entity.StateRecord{EntityID: "sensor.cic_cop", Value: 1.0})
	db.SetState(ctx, entity.DeviceTypeHub, "local", nil)
	db.SetState(ctx, entity.DeviceTypeHub, "local", &entity.StateRecord{})

	stored, ok := db.State("sensor.cic_cop")
	require.True(t, ok)
	assert.Equal(t, 3.5, stored.Value)
	assert.Len(t, db.GetAllRecords(ctx), 1)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	db := newTestDatabase(&now)

	db.SetState(ctx, entity.DeviceTypeHeatpump1, "local", &entity.StateRecord{EntityID: "sensor.heatpump_1_power", Value: 1500.0})
	db.SetState(ctx, entity.DeviceTypeHeatpump1, "local", &entity.StateRecord{EntityID: "binary_sensor.heatpump_1_defrost", Value: false})
	db.SetState(ctx, entity.DeviceTypeHub, "local", &entity.StateRecord{EntityID: "sensor.cic_cop", Value: 4.0})

	assert.Equal(t, []entity.DeviceType{entity.DeviceTypeHub, entity.DeviceTypeHeatpump1}, db.GetAllDeviceTypes(ctx))

	cells := db.GetDeviceCells(ctx, entity.DeviceTypeHeatpump1)
	require.Len(t, cells, 2)
	assert.Equal(t, "binary_sensor.heatpump_1_defrost", cells[0].Record.EntityID)
	assert.Equal(t, "sensor.heatpump_1_power", cells[1].Record.EntityID)
	assert.Equal(t, "local", cells[1].Source)

	records := db.GetAllRecords(ctx)
	require.Len(t, records, 3)
	assert.Equal(t, "binary_sensor.heatpump_1_defrost", records[0].EntityID)
	assert.Equal(t, "sensor.cic_cop", records[1].EntityID)
}

func TestSubscribeCoalesces(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	db := newTestDatabase(&now)

	ch, cancel := db.Subscribe()
	db.Commit(ctx)
	db.Commit(ctx)

	select {
	case <-ch:
	default:
		t.Fatal("expected a signal after commit")
	}
	select {
	case <-ch:
		t.Fatal("signals were not coalesced")
	default:
	}

	cancel()
	db.Commit(ctx)
	select {
	case <-ch:
		t.Fatal("signal delivered after unsubscribe")
	default:
	}
}

func TestCleanOfflineRecords(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	db := newTestDatabase(&now)

	db.SetState(ctx, entity.DeviceTypeHub, "local", &entity.StateRecord{EntityID: "sensor.cic_old", Value: 1.0})
	now = now.Add(90 * time.Second)
	db.SetState(ctx, entity.DeviceTypeHub, "local", &entity.StateRecord{EntityID: "sensor.cic_new", Value: 2.0})
	ch, cancel := db.Subscribe()
	defer cancel()

	now = now.Add(30 * time.Second)
	db.cleanOfflineRecords(time.Minute)

	_, ok := db.State("sensor.cic_old")
	assert.False(t, ok)
	_, ok = db.State("sensor.cic_new")
	assert.True(t, ok)
	select {
	case <-ch:
	default:
		t.Fatal("expected a signal after cleanup")
	}
}
