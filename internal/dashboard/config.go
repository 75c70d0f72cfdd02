package dashboard

import "github.com/kuretru/quatt-gateway/entity"

// Role names a section of the card configuration.
type Role string

const (
	RoleSystemSetup Role = "system_setup"
	RoleHP1         Role = "hp1"
	RoleHP2         Role = "hp2"
	RoleBoiler      Role = "boiler"
	RoleHeatBattery Role = "heat_battery"
	RoleHeatCharger Role = "heat_charger"
	RoleThermostat  Role = "thermostat"
	RoleFlowmeter   Role = "flowmeter"
	RoleHouse       Role = "house"
)

// Section maps a field name to the entity id backing it.
type Section map[string]string

// CardConfig 仪表盘卡片配置，每个角色一个可选的段
type CardConfig struct {
	SystemSetup Section `yaml:"system_setup" json:"system_setup,omitempty"`
	HP1         Section `yaml:"hp1" json:"hp1,omitempty"`
	HP2         Section `yaml:"hp2" json:"hp2,omitempty"`
	Boiler      Section `yaml:"boiler" json:"boiler,omitempty"`
	HeatBattery Section `yaml:"heat_battery" json:"heat_battery,omitempty"`
	HeatCharger Section `yaml:"heat_charger" json:"heat_charger,omitempty"`
	Thermostat  Section `yaml:"thermostat" json:"thermostat,omitempty"`
	Flowmeter   Section `yaml:"flowmeter" json:"flowmeter,omitempty"`
	House       Section `yaml:"house" json:"house,omitempty"`

	HouseLabel        string `yaml:"house_label" json:"house_label,omitempty"`
	HasSolarCollector bool   `yaml:"has_solar_collector" json:"has_solar_collector,omitempty"`
	HasBattery        bool   `yaml:"has_battery" json:"has_battery,omitempty"`
	Locale            string `yaml:"locale" json:"locale,omitempty"`
}

// ApplyDefaults fills every unconfigured section from DefaultCardConfig.
// An explicitly empty section stays empty.
func (c *CardConfig) ApplyDefaults() {
	defaults := DefaultCardConfig()
	for _, pair := range []struct{ section, fallback *Section }{
		{&c.SystemSetup, &defaults.SystemSetup},
		{&c.HP1, &defaults.HP1},
		{&c.HP2, &defaults.HP2},
		{&c.Boiler, &defaults.Boiler},
		{&c.HeatBattery, &defaults.HeatBattery},
		{&c.HeatCharger, &defaults.HeatCharger},
		{&c.Thermostat, &defaults.Thermostat},
		{&c.Flowmeter, &defaults.Flowmeter},
		{&c.House, &defaults.House},
	} {
		if *pair.section == nil {
			*pair.section = *pair.fallback
		}
	}
}

// Section returns the section for role, nil when the role is unknown or unconfigured.
func (c *CardConfig) Section(role Role) Section {
	if c == nil {
		return nil
	}
	switch role {
	case RoleSystemSetup:
		return c.SystemSetup
	case RoleHP1:
		return c.HP1
	case RoleHP2:
		return c.HP2
	case RoleBoiler:
		return c.Boiler
	case RoleHeatBattery:
		return c.HeatBattery
	case RoleHeatCharger:
		return c.HeatCharger
	case RoleThermostat:
		return c.Thermostat
	case RoleFlowmeter:
		return c.Flowmeter
	case RoleHouse:
		return c.House
	}
	return nil
}

// EntityID returns the entity id configured for role.field.
func (c *CardConfig) EntityID(role Role, field string) (string, bool) {
	id, ok := c.Section(role)[field]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// StateStore is the read side of the gateway database.
type StateStore interface {
	State(entityID string) (*entity.StateRecord, bool)
}

// DefaultCardConfig wires every role to the entity ids produced by the local collector.
func DefaultCardConfig() CardConfig {
	return CardConfig{
		SystemSetup: Section{
			"system":   "sensor.cic_system",
			"odu_type": "sensor.heatpump_1_odu_type",
		},
		HP1: Section{
			"workingmode": "sensor.heatpump_1_workingmode",
			"power":       "sensor.heatpump_1_power",
			"power_input": "sensor.heatpump_1_power_input",
			"water_in":    "sensor.heatpump_1_temperature_water_in",
			"water_out":   "sensor.heatpump_1_temperature_water_out",
			"outside":     "sensor.heatpump_1_temperature_outside",
			"cop":         "sensor.heatpump_1_quatt_cop",
			"defrost":     "binary_sensor.heatpump_1_defrost",
			"silentmode":  "binary_sensor.heatpump_1_silentmode",
		},
		HP2: Section{
			"workingmode": "sensor.heatpump_2_workingmode",
			"power":       "sensor.heatpump_2_power",
			"power_input": "sensor.heatpump_2_power_input",
			"water_in":    "sensor.heatpump_2_temperature_water_in",
			"water_out":   "sensor.heatpump_2_temperature_water_out",
			"cop":         "sensor.heatpump_2_quatt_cop",
			"defrost":     "binary_sensor.heatpump_2_defrost",
		},
		Boiler: Section{
			"heat_power": "sensor.boiler_heat_power",
			"water_in":   "sensor.boiler_temperature_water_inlet",
			"water_out":  "sensor.boiler_temperature_water_outlet",
			"heating":    "binary_sensor.boiler_heating",
			"flame":      "binary_sensor.boiler_flame",
			"cic_on":     "binary_sensor.boiler_cic_on_off_mode",
		},
		HeatBattery: Section{
			"shower_minutes": "sensor.heat_battery_shower_minutes_remaining",
			"top":            "sensor.heat_battery_top_temperature",
			"middle":         "sensor.heat_battery_middle_temperature",
			"bottom":         "sensor.heat_battery_bottom_temperature",
		},
		HeatCharger: Section{
			"electrical_power": "sensor.heat_charger_electrical_power",
			"supply":           "sensor.heat_charger_distribution_system_supply_temperature",
			"pressure":         "sensor.heat_charger_heating_system_pressure",
		},
		Thermostat: Section{
			"room_temperature": "sensor.thermostat_room_temperature",
			"room_setpoint":    "sensor.thermostat_room_setpoint",
			"heating":          "binary_sensor.thermostat_heating",
		},
		Flowmeter: Section{
			"temperature": "sensor.flowmeter_temperature",
			"flowrate":    "sensor.flowmeter_flowrate",
		},
		House: Section{
			"heat_power": "sensor.cic_heat_power",
			"cop":        "sensor.cic_cop",
		},
	}
}
