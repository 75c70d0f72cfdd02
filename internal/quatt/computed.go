package quatt

import (
	"log/slog"
	"math"
	"strings"

	"github.com/kuretru/quatt-gateway/internal/utils"
)

// Topology describes which parts of an installation are present in a feed.
type Topology struct {
	Heatpump1   bool
	Heatpump2   bool
	AllElectric bool
	Opentherm   bool
}

// DetectLocal inspects a local feed.
func DetectLocal(feed Feed) Topology {
	return Topology{
		Heatpump1:   feed.Has("hp1"),
		Heatpump2:   feed.Has("hp2"),
		AllElectric: feed.Has("hc.electricalPower"),
		Opentherm:   feed.Has("boiler.otFbChModeActive"),
	}
}

// DetectRemote inspects a mobile API document.
func DetectRemote(feed Feed) Topology {
	count := feed.Len("heatPumps")
	return Topology{
		Heatpump1:   count >= 1,
		Heatpump2:   count >= 2,
		AllElectric: feed.Has("allEStatus"),
		Opentherm:   feed.Has("isBoilerConnected"),
	}
}

// Computer resolves feed keys, including "computed*" segments that derive
// values from several raw readings.
type Computer struct {
	feed     Feed
	topology Topology
	// electricalPower reads the external power meter, if one is configured.
	electricalPower func() (float64, bool)
}

func NewComputer(feed Feed, topology Topology, electricalPower func() (float64, bool)) *Computer {
	if electricalPower == nil {
		electricalPower = func() (float64, bool) { return 0, false }
	}
	return &Computer{feed: feed, topology: topology, electricalPower: electricalPower}
}

// Value returns the value for key, or false when it is absent or cannot be computed.
func (c *Computer) Value(key string) (any, bool) {
	parts := strings.Split(key, ".")
	parent := ""
	for i, part := range parts {
		if strings.HasPrefix(part, "computed") {
			if parent != "" && !c.feed.Has(parent) {
				return nil, false
			}
			return c.compute(part, parent)
		}
		if i > 0 {
			parent += "."
		}
		parent += part
	}
	return c.feed.Value(key)
}

func (c *Computer) compute(name string, parent string) (any, bool) {
	var (
		value any
		ok    bool
	)
	switch name {
	case "computedWaterDelta":
		value, ok = floatResult(c.waterDelta(parent))
	case "computedHeatPower":
		value, ok = floatResult(c.heatPower())
	case "computedBoilerHeatPower":
		value, ok = floatResult(c.boilerHeatPower())
	case "computedSystemPower":
		value, ok = floatResult(c.systemPower())
	case "computedPowerInput":
		value, ok = c.powerInput(), true
	case "computedPower":
		value, ok = c.power(), true
	case "computedCop":
		value, ok = floatResult(c.cop())
	case "computedQuattCop":
		value, ok = floatResult(c.quattCop(parent))
	case "computedDefrost":
		value, ok = c.defrost(parent)
	case "computedSupervisoryControlMode":
		value, ok = c.supervisoryControlMode()
	case "computedAllESupervisoryControlMode":
		value, ok = c.describe("qcAllE.allESupervisoryControlMode", allElectricSupervisoryControlModes)
	case "computedElectricityTariffType":
		value, ok = c.describe("system.electricityTariffType", electricityTariffTypes)
	case "computedGasTariffType":
		value, ok = c.describe("system.gasTariffType", gasTariffTypes)
	default:
		slog.Warn("Quatt.Computer: unknown computed value", "name", name)
		return nil, false
	}
	return value, ok
}

func floatResult(value float64, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return value, true
}

func (c *Computer) float(path string) (float64, bool) {
	value, ok := c.feed.Value(path)
	if !ok {
		return 0, false
	}
	return utils.ToFloat64(value)
}

func (c *Computer) floatOrZero(path string) float64 {
	value, _ := c.float(path)
	return value
}

// waterDelta without a parent spans the whole chain: hp2 outlet minus hp1 inlet.
func (c *Computer) waterDelta(parent string) (float64, bool) {
	outPath, inPath := "hp2.temperatureWaterOut", "hp1.temperatureWaterIn"
	if parent != "" {
		outPath, inPath = parent+".temperatureWaterOut", parent+".temperatureWaterIn"
	}
	waterOut, ok := c.float(outPath)
	if !ok {
		return 0, false
	}
	waterIn, ok := c.float(inPath)
	if !ok {
		return 0, false
	}
	return utils.Round(waterOut-waterIn, 2), true
}

func (c *Computer) lastHeatpump() string {
	if c.topology.Heatpump2 {
		return "hp2"
	}
	return "hp1"
}

func (c *Computer) heatPower() (float64, bool) {
	mode, ok := c.float("qc.supervisoryControlMode")
	if !ok {
		return 0, false
	}
	if int(mode) != ModeHeatingHeatpumpOnly && int(mode) != ModeHeatingHeatpumpPlusBoiler {
		return 0, true
	}

	var delta float64
	if c.topology.Heatpump2 {
		delta, ok = c.waterDelta("")
	} else {
		delta, ok = c.waterDelta("hp1")
	}
	if !ok {
		return 0, false
	}
	waterOut, ok := c.float(c.lastHeatpump() + ".temperatureWaterOut")
	if !ok {
		return 0, false
	}
	flowRate, ok := c.float("qc.flowRateFiltered")
	if !ok {
		return 0, false
	}

	value := utils.Round(delta*flowRate*ConversionFactor(waterOut), 2)
	return math.Max(value, 0), true
}

func (c *Computer) boilerHeatPower() (float64, bool) {
	mode, ok := c.float("qc.supervisoryControlMode")
	if !ok {
		return 0, false
	}
	if int(mode) != ModeHeatingHeatpumpPlusBoiler && int(mode) != ModeHeatingBoilerOnly {
		return 0, true
	}

	heatpumpOut, ok := c.float(c.lastHeatpump() + ".temperatureWaterOut")
	if !ok {
		return 0, false
	}
	flowRate, ok := c.float("qc.flowRateFiltered")
	if !ok {
		return 0, false
	}
	supply, ok := c.float("flowMeter.waterSupplyTemperature")
	if !ok {
		return 0, false
	}

	value := utils.Round((supply-heatpumpOut)*flowRate*ConversionFactor(supply), 2)
	return math.Max(value, 0), true
}

func (c *Computer) systemPower() (float64, bool) {
	var (
		heater float64
		ok     bool
	)
	if c.topology.AllElectric {
		heater, ok = c.float("hc.electricalPower")
	} else {
		heater, ok = c.boilerHeatPower()
	}
	if !ok {
		return 0, false
	}
	return heater + c.power(), true
}

func (c *Computer) powerInput() float64 {
	total := c.floatOrZero("hp1.powerInput")
	if c.topology.Heatpump2 {
		total += c.floatOrZero("hp2.powerInput")
	}
	return total
}

func (c *Computer) power() float64 {
	total := c.floatOrZero("hp1.power")
	if c.topology.Heatpump2 {
		total += c.floatOrZero("hp2.power")
	}
	return total
}

func (c *Computer) cop() (float64, bool) {
	electrical, ok := c.electricalPower()
	if !ok || electrical == 0 {
		return 0, false
	}
	heat, ok := c.heatPower()
	if !ok {
		return 0, false
	}
	return utils.Round(heat/electrical, 2), true
}

func (c *Computer) quattCop(parent string) (float64, bool) {
	var input, output float64
	if parent == "" {
		input, output = c.powerInput(), c.power()
	} else {
		var ok bool
		if input, ok = c.float(parent + ".powerInput"); !ok {
			return 0, false
		}
		if output, ok = c.float(parent + ".power"); !ok {
			return 0, false
		}
	}
	if input == 0 {
		return 0, false
	}
	value := utils.Round(output/input, 2)
	if value == 0 {
		// no negative zero
		return 0, true
	}
	return value, true
}

// defrost: heating mode, heat pump produces nothing and water leaves colder than it came in.
func (c *Computer) defrost(parent string) (any, bool) {
	if parent == "" {
		return nil, false
	}
	mode, ok := c.float("qc.supervisoryControlMode")
	if !ok {
		return nil, false
	}
	power, ok := c.float(parent + ".power")
	if !ok {
		return nil, false
	}
	delta, ok := c.waterDelta(parent)
	if !ok {
		return nil, false
	}
	heating := int(mode) == ModeHeatingHeatpumpOnly || int(mode) == ModeHeatingHeatpumpPlusBoiler
	return heating && power == 0 && delta < -1, true
}

func (c *Computer) supervisoryControlMode() (any, bool) {
	mode, ok := c.float("qc.supervisoryControlMode")
	if !ok {
		return nil, false
	}
	if int(mode) >= modeCommissioningStart {
		return "Commissioning modes", true
	}
	description, ok := supervisoryControlModes[int(mode)]
	return description, ok
}

func (c *Computer) describe(path string, descriptions map[int]string) (any, bool) {
	code, ok := c.float(path)
	if !ok {
		return nil, false
	}
	description, ok := descriptions[int(code)]
	if !ok {
		return nil, false
	}
	return description, true
}
