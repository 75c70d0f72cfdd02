package dashboard

import (
	"testing"

	"github.com/kuretru/quatt-gateway/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTriState(t *testing.T) {
	tests := []struct {
		value any
		want  TriState
	}{
		{true, True},
		{"true", True},
		{" true ", Unknown},
		{"TRUE", Unknown},
		{false, False},
		{"false", False},
		{"False", Unknown},
		{nil, Unknown},
		{"", Unknown},
		{"yes", Unknown},
		{1, Unknown},
		{0.0, Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTriState(tt.value), "%#v", tt.value)
	}
	assert.Equal(t, "unknown", Unknown.String())

	var state TriState
	require.NoError(t, state.UnmarshalText([]byte("false")))
	assert.Equal(t, False, state)
}

func TestAllElectricPredicates(t *testing.T) {
	tests := []struct {
		name        string
		records     []*entity.StateRecord
		allElectric bool
		hybrid      bool
	}{
		{"bool true", []*entity.StateRecord{systemRecord(map[string]any{AttributeAllElectric: true})}, true, false},
		{"string true", []*entity.StateRecord{systemRecord(map[string]any{AttributeAllElectric: "true"})}, true, false},
		{"bool false", []*entity.StateRecord{systemRecord(map[string]any{AttributeAllElectric: false})}, false, true},
		{"string false", []*entity.StateRecord{systemRecord(map[string]any{AttributeAllElectric: "false"})}, false, true},
		{"unrecognised", []*entity.StateRecord{systemRecord(map[string]any{AttributeAllElectric: "maybe"})}, false, false},
		{"attribute absent", []*entity.StateRecord{systemRecord(nil)}, false, false},
		{"entity missing", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultCardConfig()
			topology := Evaluate(NewResolver(&config, newStore(tt.records...)))
			assert.Equal(t, tt.allElectric, topology.IsAllElectric())
			assert.Equal(t, tt.hybrid, topology.IsHybrid())
		})
	}
}

func TestDuoPredicates(t *testing.T) {
	config := DefaultCardConfig()

	topology := Evaluate(NewResolver(&config, newStore(systemRecord(map[string]any{AttributeDuo: "true"}))))
	assert.True(t, topology.IsDuo())
	assert.False(t, topology.IsMono())

	topology = Evaluate(NewResolver(&config, newStore(systemRecord(map[string]any{AttributeDuo: false}))))
	assert.False(t, topology.IsDuo())
	assert.True(t, topology.IsMono())

	topology = Evaluate(NewResolver(&config, newStore()))
	assert.False(t, topology.IsDuo())
	assert.False(t, topology.IsMono())
	assert.Equal(t, Unknown, topology.Duo)
	assert.False(t, topology.IsOpentherm())
}

func TestSystemVersion(t *testing.T) {
	for value, want := range map[any]string{
		"AMM4-V2.0":  SystemVersionV2,
		"AMM4-V1.0":  SystemVersionV1,
		"amm4-v2.0":  SystemVersionV1,
		" AMM4-V2.0": SystemVersionV1,
		"":           SystemVersionV1,
		2.0:          SystemVersionV1,
	} {
		config := DefaultCardConfig()
		store := newStore(&entity.StateRecord{EntityID: "sensor.heatpump_1_odu_type", Value: value})
		assert.Equal(t, want, Evaluate(NewResolver(&config, store)).SystemVersion, "%#v", value)
	}

	config := DefaultCardConfig()
	assert.Equal(t, SystemVersionV1, Evaluate(NewResolver(&config, newStore())).SystemVersion)
}

func TestOptionalEquipment(t *testing.T) {
	config := DefaultCardConfig()
	config.House["airco"] = "climate.living_room"
	config.House["solar_panels"] = "sensor.solar_power"
	config.House["hot_water_cylinder"] = "sensor.boiler_tank"
	config.HasSolarCollector = true

	tests := []struct {
		name   string
		airco  any
		solar  any
		tank   any
		expect bool
	}{
		{"running", "cool", 1250.0, 55.5, true},
		{"idle", "off", "0", 0.0, true},
		{"unavailable", "unavailable", false, "unknown", true},
		{"empty", "", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(
				&entity.StateRecord{EntityID: "climate.living_room", Value: tt.airco},
				&entity.StateRecord{EntityID: "sensor.solar_power", Value: tt.solar},
				&entity.StateRecord{EntityID: "sensor.boiler_tank", Value: tt.tank},
			)
			topology := Evaluate(NewResolver(&config, store))
			assert.Equal(t, tt.expect, topology.HasAirco)
			assert.Equal(t, tt.expect, topology.HasSolarPanels)
			assert.Equal(t, tt.expect, topology.HasHotWaterCylinder)
			assert.True(t, topology.HasSolarCollector)
			assert.False(t, topology.HasBattery)
		})
	}

	// 已配置但没有状态
	topology := Evaluate(NewResolver(&config, newStore()))
	assert.False(t, topology.HasAirco)
	assert.False(t, topology.HasHotWaterCylinder)

	// 未配置的实体
	empty := CardConfig{}
	store := newStore(&entity.StateRecord{EntityID: "climate.living_room", Value: "cool"})
	topology = Evaluate(NewResolver(&empty, store))
	assert.False(t, topology.HasAirco)
	assert.False(t, topology.HasSolarPanels)
}

func TestTruthy(t *testing.T) {
	for _, value := range []any{nil, "", "off", "unavailable", "Unknown", "false", "0", false, 0, 0.0} {
		assert.False(t, truthy(value), "%#v", value)
	}
	for _, value := range []any{"on", "heat", true, 1, 12.5, "21.5"} {
		assert.True(t, truthy(value), "%#v", value)
	}
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "hybrid-duo", Topology{AllElectric: False, Duo: True}.Category())
	assert.Equal(t, "all-electric-mono", Topology{AllElectric: True, Duo: False}.Category())
	assert.Equal(t, "unknown-unknown", Topology{}.Category())
}
