package dashboard

import (
	"strings"

	"github.com/kuretru/quatt-gateway/internal/utils"
)

// Attributes of the system entity written by the collectors.
const (
	AttributeAllElectric = "All electric system"
	AttributeDuo         = "Duo heatpump system"
	AttributeOpentherm   = "Opentherm system"
)

const (
	SystemVersionV1 = "V1"
	SystemVersionV2 = "V2"

	oduTypeV2 = "AMM4-V2.0"
)

// TriState is a boolean that may not be known yet, e.g. before the first poll.
type TriState int

const (
	Unknown TriState = iota
	True
	False
)

func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "unknown"
}

func (t TriState) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TriState) UnmarshalText(text []byte) error {
	*t = ParseTriState(string(text))
	return nil
}

// ParseTriState recognises the booleans and the exact strings "true" and "false".
func ParseTriState(value any) TriState {
	switch v := value.(type) {
	case bool:
		if v {
			return True
		}
		return False
	case string:
		switch v {
		case "true":
			return True
		case "false":
			return False
		}
	}
	return Unknown
}

// Topology 系统形态快照，每次渲染计算一次
type Topology struct {
	AllElectric TriState `json:"all_electric"`
	Duo         TriState `json:"duo"`
	Opentherm   TriState `json:"opentherm"`

	HasAirco            bool   `json:"has_airco"`
	HasSolarPanels      bool   `json:"has_solar_panels"`
	HasSolarCollector   bool   `json:"has_solar_collector"`
	HasBattery          bool   `json:"has_battery"`
	HasHotWaterCylinder bool   `json:"has_hot_water_cylinder"`
	SystemVersion       string `json:"system_version"`
}

// Evaluate derives the topology from the system entity and the optional house entities.
func Evaluate(r *Resolver) Topology {
	system := func(attribute string) TriState {
		return ParseTriState(r.Lookup(RoleSystemSetup, "system", Options{Attribute: attribute}).Raw())
	}
	flag := func(name string) bool {
		b, _ := r.Resolve(name, Options{}).Raw().(bool)
		return b
	}

	version := SystemVersionV1
	if oduType, ok := r.Lookup(RoleSystemSetup, "odu_type", Options{}).Raw().(string); ok && oduType == oduTypeV2 {
		version = SystemVersionV2
	}

	return Topology{
		AllElectric:         system(AttributeAllElectric),
		Duo:                 system(AttributeDuo),
		Opentherm:           system(AttributeOpentherm),
		HasAirco:            r.present(RoleHouse, "airco"),
		HasSolarPanels:      r.present(RoleHouse, "solar_panels"),
		HasSolarCollector:   flag("has_solar_collector"),
		HasBattery:          flag("has_battery"),
		HasHotWaterCylinder: r.present(RoleHouse, "hot_water_cylinder"),
		SystemVersion:       version,
	}
}

func (t Topology) IsAllElectric() bool {
	return t.AllElectric == True
}

func (t Topology) IsHybrid() bool {
	return t.AllElectric == False
}

func (t Topology) IsDuo() bool {
	return t.Duo == True
}

func (t Topology) IsMono() bool {
	return t.Duo == False
}

func (t Topology) IsOpentherm() bool {
	return t.Opentherm == True
}

// Category names the diagram variant, e.g. "hybrid-duo" or "unknown-mono".
func (t Topology) Category() string {
	system := "unknown"
	switch {
	case t.IsHybrid():
		system = "hybrid"
	case t.IsAllElectric():
		system = "all-electric"
	}
	heatpumps := "unknown"
	switch {
	case t.IsMono():
		heatpumps = "mono"
	case t.IsDuo():
		heatpumps = "duo"
	}
	return system + "-" + heatpumps
}

// present reports whether the entity has a state at all. "off" and 0 still count.
func (r *Resolver) present(role Role, field string) bool {
	value := r.Lookup(role, field, Options{})
	if value.Kind != KindRecord || value.Record.Value == nil {
		return false
	}
	s, ok := value.Record.Value.(string)
	return !ok || s != ""
}

// truthy is used for the on/off display values such as heating or defrost.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "off", "unavailable", "unknown", "false", "0":
			return false
		}
		return true
	}
	if number, ok := utils.ToFloat64(value); ok {
		return number != 0
	}
	return true
}
