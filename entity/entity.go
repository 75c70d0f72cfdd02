package entity

import (
	"maps"
	"time"
)

type MQTTConfig struct {
	URL       string `yaml:"url"`
	Keepalive uint16 `yaml:"keepalive"`
	Topic     string `yaml:"topic"`
	ClientID  string `yaml:"client_id"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

type LocalCollectorConfig struct {
	IPAddress string `yaml:"ip_address"`
	// PowerSensor is the entity id of an external electricity meter used for the COP.
	PowerSensor string `yaml:"power_sensor"`
}

type RemoteCollectorConfig struct {
	CIC          string `yaml:"cic"`
	APIKey       string `yaml:"api_key"`
	RefreshToken string `yaml:"refresh_token"`
	TokenDB      string `yaml:"token_db"`
}

type CollectorConfig struct {
	Type         string                 `yaml:"type"`
	ScanInterval int                    `yaml:"scan_interval"` // seconds
	Local        *LocalCollectorConfig  `yaml:"local"`
	Remote       *RemoteCollectorConfig `yaml:"remote"`
}

type PrometheusConfig struct {
	Listen string `yaml:"listen"`
}

type PublisherConfig struct {
	Type       string            `yaml:"type"`
	MQTT       *MQTTConfig       `yaml:"mqtt"`
	Prometheus *PrometheusConfig `yaml:"prometheus"`
}

type DeviceType string

var (
	DeviceTypeHub        DeviceType = "cic"
	DeviceTypeHeatpump1  DeviceType = "heatpump_1"
	DeviceTypeHeatpump2  DeviceType = "heatpump_2"
	DeviceTypeBoiler     DeviceType = "boiler"
	DeviceTypeFlowmeter  DeviceType = "flowmeter"
	DeviceTypeThermostat DeviceType = "thermostat"
	DeviceTypeBattery    DeviceType = "heat_battery"
	DeviceTypeCharger    DeviceType = "heat_charger"
)

// DeviceName 设备在Home Assistant中的显示名称
func (t DeviceType) DeviceName() string {
	switch t {
	case DeviceTypeHub:
		return "CIC"
	case DeviceTypeHeatpump1:
		return "Heatpump 1"
	case DeviceTypeHeatpump2:
		return "Heatpump 2"
	case DeviceTypeBoiler:
		return "Boiler"
	case DeviceTypeFlowmeter:
		return "Flowmeter"
	case DeviceTypeThermostat:
		return "Thermostat"
	case DeviceTypeBattery:
		return "Heat battery"
	case DeviceTypeCharger:
		return "Heat charger"
	}
	return string(t)
}

// StateRecord 实体的当前快照，每次轮询整体替换
type StateRecord struct {
	EntityID    string         `json:"entity_id" yaml:"entity_id"`
	Value       any            `json:"state" yaml:"state"`
	Attributes  map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	LastUpdated time.Time      `json:"last_updated" yaml:"last_updated"`
}

// Clone returns a copy whose attribute map can be handed out to readers.
func (r *StateRecord) Clone() *StateRecord {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Attributes = maps.Clone(r.Attributes)
	return &clone
}

// Attribute returns the named attribute and whether it exists.
func (r *StateRecord) Attribute(name string) (any, bool) {
	if r == nil || r.Attributes == nil {
		return nil, false
	}
	value, ok := r.Attributes[name]
	return value, ok
}

// Command 来自Home Assistant的设置指令
type Command struct {
	NodeID string
	Key    string
	Value  string
}
