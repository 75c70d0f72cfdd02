// Package catalog lists every entity the gateway can expose and decides which
// of them apply to a detected installation.
package catalog

import (
	"fmt"
	"strings"

	"github.com/kuretru/quatt-gateway/entity"
	"github.com/kuretru/quatt-gateway/internal/quatt"
)

const (
	PlatformSensor       = "sensor"
	PlatformBinarySensor = "binary_sensor"
	PlatformSelect       = "select"
)

const (
	CategoryDiagnostic = "diagnostic"
	CategoryConfig     = "config"
)

// Description 实体描述
type Description struct {
	Device         entity.DeviceType
	Platform       string
	Key            string // feed path, may contain computed segments
	Name           string
	Icon           string
	Unit           string
	DeviceClass    string
	StateClass     string
	EntityCategory string
	Precision      *int
	Options        []string

	// Installation flags: the entity only applies when every set flag holds.
	Hybrid      bool
	AllElectric bool
	Duo         bool
	Opentherm   bool

	// MobileAPI entities are read from the remote API, all others from the local feed.
	MobileAPI bool

	// set by All when a local entity already owns the slug
	remoteSuffix bool
}

func (d Description) slug() string {
	return Slugify(d.Device.DeviceName() + " " + d.Name)
}

// ObjectID is the slug used for the Home Assistant object id and entity id.
func (d Description) ObjectID() string {
	if d.remoteSuffix {
		return d.slug() + "_remote"
	}
	return d.slug()
}

// EntityID is the id under which the entity's state is stored and published.
func (d Description) EntityID() string {
	return d.Platform + "." + d.ObjectID()
}

func (d Description) applies(topology quatt.Topology) bool {
	conditions := []struct {
		set  bool
		held bool
	}{
		{d.Hybrid, !topology.AllElectric},
		{d.AllElectric, topology.AllElectric},
		{d.Duo, topology.Heatpump2},
		{d.Opentherm, topology.Opentherm},
	}
	for _, condition := range conditions {
		if condition.set && !condition.held {
			return false
		}
	}
	return true
}

// Select returns the descriptions that apply to topology for the given source.
func Select(topology quatt.Topology, remote bool) []Description {
	result := make([]Description, 0)
	for _, description := range All() {
		if description.MobileAPI != remote {
			continue
		}
		if !description.applies(topology) {
			continue
		}
		result = append(result, description)
	}
	return result
}

// Lookup finds a description by entity id.
func Lookup(entityID string) (Description, bool) {
	for _, description := range All() {
		if description.EntityID() == entityID {
			return description, true
		}
	}
	return Description{}, false
}

// Slugify lowercases s and joins its alphanumeric runs with underscores.
func Slugify(s string) string {
	var builder strings.Builder
	pendingSeparator := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSeparator && builder.Len() > 0 {
				builder.WriteByte('_')
			}
			builder.WriteRune(r)
			pendingSeparator = false
			continue
		}
		pendingSeparator = true
	}
	return builder.String()
}

func precision(digits int) *int {
	return &digits
}

// All returns every known description, hub first.
func All() []Description {
	result := make([]Description, 0, 128)
	result = append(result, hubDescriptions()...)
	result = append(result, heatpumpDescriptions(0)...)
	result = append(result, heatpumpDescriptions(1)...)
	result = append(result, boilerDescriptions()...)
	result = append(result, flowmeterDescriptions()...)
	result = append(result, thermostatDescriptions()...)
	result = append(result, heatBatteryDescriptions()...)
	result = append(result, heatChargerDescriptions()...)
	markRemoteDuplicates(result)
	return result
}

func markRemoteDuplicates(result []Description) {
	local := make(map[string]struct{}, len(result))
	for _, description := range result {
		if !description.MobileAPI {
			local[description.Platform+"."+description.slug()] = struct{}{}
		}
	}
	for i := range result {
		if !result[i].MobileAPI {
			continue
		}
		if _, ok := local[result[i].Platform+"."+result[i].slug()]; ok {
			result[i].remoteSuffix = true
		}
	}
}

func heatpumpDescriptions(index int) []Description {
	device := entity.DeviceTypeHeatpump1
	prefix := "hp1"
	if index == 1 {
		device = entity.DeviceTypeHeatpump2
		prefix = "hp2"
	}
	api := fmt.Sprintf("heatPumps.%d", index)

	descriptions := []Description{
		sensor(device, prefix+".getMainWorkingMode", "Workingmode", "mdi:auto-mode"),
		temperature(device, prefix+".temperatureOutside", "Temperature outside"),
		temperature(device, prefix+".temperatureWaterIn", "Temperature water in"),
		temperature(device, prefix+".temperatureWaterOut", "Temperature water out"),
		temperature(device, prefix+".computedWaterDelta", "Water delta"),
		power(device, prefix+".powerInput", "Power input", "mdi:lightning-bolt"),
		power(device, prefix+".power", "Power", "mdi:heat-wave"),
		measurement(device, prefix+".computedQuattCop", "Quatt COP", "mdi:heat-pump", "CoP", 2),
		binarySensor(device, prefix+".silentModeStatus", "Silentmode", "mdi:volume-off"),
		binarySensor(device, prefix+".limitedByCop", "Limited by COP", "mdi:arrow-collapse-down"),
		binarySensor(device, prefix+".computedDefrost", "Defrost", "mdi:snowflake-melt"),

		remote(sensor(device, api+".on", "On", "mdi:power")),
		remote(diagnostic(sensor(device, api+".modbusSlaveId", "Modbus slave ID", "mdi:identifier"))),
		remote(measurement(device, api+".compressorFrequency", "Compressor frequency", "mdi:sine-wave", "Hz", 0)),
		remote(measurement(device, api+".compressorFrequencyDemand", "Compressor frequency demand", "mdi:sine-wave", "Hz", 0)),
		remote(power(device, api+".minimumPower", "Minimum power", "mdi:gauge-low")),
		remote(power(device, api+".electricalPower", "Electrical power", "mdi:lightning-bolt")),
		remote(power(device, api+".ratedPower", "Rated power", "mdi:gauge")),
		remote(power(device, api+".expectedPower", "Expected power", "mdi:lightning-bolt-outline")),
		remote(sensor(device, api+".status", "Status", "mdi:information")),
		remote(measurement(device, api+".waterPumpLevel", "Water pump level", "mdi:pump", "", 0)),
		remote(diagnostic(sensor(device, api+".oduType", "ODU type", "mdi:heat-pump-outline"))),
	}
	if index == 1 {
		for i := range descriptions {
			descriptions[i] = duo(descriptions[i])
		}
	}
	return descriptions
}
