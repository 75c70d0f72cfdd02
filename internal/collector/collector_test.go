package collector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kuretru/quatt-gateway/entity"
	"github.com/kuretru/quatt-gateway/internal/database"
	"github.com/kuretru/quatt-gateway/internal/quatt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const duoFeed = `{
	"time": {"tsHuman": "2024-01-01T12:00:00Z"},
	"hp1": {"temperatureWaterIn": 30.0, "temperatureWaterOut": 35.0, "powerInput": 500, "power": 2000, "silentModeStatus": false},
	"hp2": {"temperatureWaterIn": 35.0, "temperatureWaterOut": 37.0, "powerInput": 600, "power": 1800},
	"qc": {"supervisoryControlMode": 2, "flowRateFiltered": 800},
	"flowMeter": {"waterSupplyTemperature": 37.0}
}`

type fakeSource struct {
	feeds []string
	err   error
	calls int
}

func (s *fakeSource) GetData(_ context.Context) (quatt.Feed, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	raw := s.feeds[min(s.calls, len(s.feeds))-1]
	var feed quatt.Feed
	if err := json.Unmarshal([]byte(raw), &feed); err != nil {
		return nil, err
	}
	return feed, nil
}

type fakeRemote struct {
	fakeSource
	settings []map[string]any
}

func (r *fakeRemote) UpdateSettings(_ context.Context, settings map[string]any) error {
	r.settings = append(r.settings, settings)
	return nil
}

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newLocalTestCollector(db *database.Database, source feedSource, metrics *Metrics) *LocalCollector {
	return &LocalCollector{
		db:      db,
		metrics: metrics,
		source:  "local:test",
		client:  source,
		now:     func() time.Time { return testNow },
	}
}

func TestScanInterval(t *testing.T) {
	assert.Equal(t, 10*time.Second, ScanInterval(0))
	assert.Equal(t, 10*time.Second, ScanInterval(-3))
	assert.Equal(t, 5*time.Second, ScanInterval(1))
	assert.Equal(t, 30*time.Second, ScanInterval(30))
	assert.Equal(t, 600*time.Second, ScanInterval(3600))
}

func TestLocalCollectorPoll(t *testing.T) {
	ctx := context.Background()
	db := database.New()
	collector := newLocalTestCollector(db, &fakeSource{feeds: []string{duoFeed}}, nil)

	require.NoError(t, collector.poll(ctx))

	power, ok := db.State("sensor.heatpump_2_power")
	require.True(t, ok)
	assert.Equal(t, 1800.0, power.Value)
	assert.Equal(t, "W", power.Attributes["unit_of_measurement"])
	assert.Equal(t, testNow, power.LastUpdated)

	total, ok := db.State("sensor.cic_total_power_input")
	require.True(t, ok)
	assert.Equal(t, 1100.0, total.Value)

	silent, ok := db.State("binary_sensor.heatpump_1_silentmode")
	require.True(t, ok)
	assert.Equal(t, false, silent.Value)

	// absent in the feed, stored as unavailable
	cop, ok := db.State("sensor.cic_cop")
	require.True(t, ok)
	assert.Nil(t, cop.Value)

	system, ok := db.State(SystemEntityID)
	require.True(t, ok)
	assert.Equal(t, "hybrid", system.Value)
	assert.Equal(t, false, system.Attributes[AttributeAllElectric])
	assert.Equal(t, true, system.Attributes[AttributeDuo])
	assert.Equal(t, false, system.Attributes[AttributeOpentherm])

	_, ok = db.State("sensor.heat_battery_top_temperature")
	assert.False(t, ok)
}

func TestLocalCollectorKeepsRecordsOnFailure(t *testing.T) {
	ctx := context.Background()
	db := database.New()
	source := &fakeSource{feeds: []string{duoFeed}}
	metrics := NewMetrics(prometheus.NewRegistry())
	collector := newLocalTestCollector(db, source, metrics)

	require.NoError(t, collector.poll(ctx))
	source.err = quatt.ErrCommunication
	err := collector.poll(ctx)
	assert.True(t, errors.Is(err, quatt.ErrCommunication))

	power, ok := db.State("sensor.heatpump_1_power")
	require.True(t, ok)
	assert.Equal(t, 2000.0, power.Value)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.pollsTotal.WithLabelValues("local:test", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.pollsTotal.WithLabelValues("local:test", "failure")))
}

func TestLocalCollectorCopFromPowerSensor(t *testing.T) {
	ctx := context.Background()
	db := database.New()
	db.SetState(ctx, entity.DeviceTypeHeatpump1, "remote:CIC-1",
		&entity.StateRecord{EntityID: "sensor.meter_power", Value: 1000.0})

	collector := newLocalTestCollector(db, &fakeSource{feeds: []string{duoFeed}}, nil)
	collector.powerSensor = "sensor.meter_power"
	require.NoError(t, collector.poll(ctx))

	// heat power: (37 - 30) * 800 * factor at 35 C
	heat, ok := db.State("sensor.cic_heat_power")
	require.True(t, ok)
	assert.Equal(t, 6484.41, heat.Value)

	cop, ok := db.State("sensor.cic_cop")
	require.True(t, ok)
	assert.Equal(t, 6.48, cop.Value)
}

const remoteFeed = `{
	"heatPumps": [{"electricalPower": 450.5, "oduType": "AMM4-V2.0"}],
	"dayMaxSoundLevel": "normal",
	"nightMaxSoundLevel": "silent",
	"isBoilerConnected": true
}`

func newRemoteTestCollector(db *database.Database, client remoteAPI) *RemoteCollector {
	return &RemoteCollector{
		db:     db,
		source: "remote:CIC-1",
		client: client,
		now:    func() time.Time { return testNow },
	}
}

func TestRemoteCollectorPoll(t *testing.T) {
	ctx := context.Background()
	db := database.New()
	collector := newRemoteTestCollector(db, &fakeRemote{fakeSource: fakeSource{feeds: []string{remoteFeed}}})

	require.NoError(t, collector.poll(ctx))

	odu, ok := db.State("sensor.heatpump_1_odu_type")
	require.True(t, ok)
	assert.Equal(t, "AMM4-V2.0", odu.Value)

	level, ok := db.State("select.cic_night_max_sound_level")
	require.True(t, ok)
	assert.Equal(t, "silent", level.Value)

	system, ok := db.State(RemoteSystemEntityID)
	require.True(t, ok)
	assert.Equal(t, true, system.Attributes[AttributeOpentherm])
	assert.Equal(t, false, system.Attributes[AttributeDuo])
}

func TestRemoteCollectorSendCommand(t *testing.T) {
	ctx := context.Background()
	db := database.New()
	client := &fakeRemote{fakeSource: fakeSource{feeds: []string{remoteFeed}}}
	collector := newRemoteTestCollector(db, client)

	err := collector.SendCommand(ctx, &entity.Command{Key: keyNightMaxSoundLevel, Value: "library"})
	assert.Error(t, err, "current levels are unknown before the first poll")

	require.NoError(t, collector.poll(ctx))
	require.NoError(t, collector.SendCommand(ctx, &entity.Command{Key: keyNightMaxSoundLevel, Value: "library"}))
	require.Len(t, client.settings, 1)
	assert.Equal(t, map[string]any{
		keyDayMaxSoundLevel:   "normal",
		keyNightMaxSoundLevel: "library",
	}, client.settings[0])
	assert.Equal(t, 2, client.calls, "state refreshed after the update")

	assert.Error(t, collector.SendCommand(ctx, &entity.Command{Key: keyDayMaxSoundLevel, Value: "loud"}))
	assert.Error(t, collector.SendCommand(ctx, &entity.Command{Key: "silentMode", Value: "normal"}))
	assert.Len(t, client.settings, 1)
}

func TestCollectorsSendCommandWithoutRemote(t *testing.T) {
	collectors := &Collectors{collectors: []QuattCollector{&LocalCollector{}}}
	err := collectors.SendCommand(context.Background(), &entity.Command{Key: keyDayMaxSoundLevel, Value: "normal"})
	assert.True(t, errors.Is(err, ErrNoCommander))
}

func TestProbeRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	db := database.New()

	assert.Error(t, Probe(ctx, []*entity.CollectorConfig{{Type: "modbus"}}, db))
	assert.Error(t, Probe(ctx, []*entity.CollectorConfig{{Type: "local", Local: &entity.LocalCollectorConfig{}}}, db))
	assert.Error(t, Probe(ctx, []*entity.CollectorConfig{{Type: "remote", Remote: &entity.RemoteCollectorConfig{CIC: "CIC-1"}}}, db))
	assert.NoError(t, Probe(ctx, nil, db))
	assert.Empty(t, db.GetAllRecords(ctx))
}
