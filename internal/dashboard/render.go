package dashboard

// Fragment is one part of the house diagram together with the values it displays.
type Fragment struct {
	Name   string         `json:"name"`
	Values map[string]any `json:"values,omitempty"`
}

// View is the output of one rendering pass.
type View struct {
	Ready      bool       `json:"ready"`
	Category   string     `json:"category,omitempty"`
	HouseLabel string     `json:"house_label,omitempty"`
	Topology   *Topology  `json:"topology,omitempty"`
	Fragments  []Fragment `json:"fragments,omitempty"`
}

// Render checks readiness, evaluates the topology once and selects the
// fragments to show. Each fragment resolves its own values.
func Render(config *CardConfig, store StateStore) View {
	if config == nil {
		return View{}
	}
	view := View{HouseLabel: config.HouseLabel}
	r := NewResolver(config, store)
	if r.Lookup(RoleSystemSetup, "system", Options{}).Kind != KindRecord {
		return view
	}

	topology := Evaluate(r)
	view.Ready = true
	view.Category = topology.Category()
	view.Topology = &topology

	add := func(name string, values map[string]any) {
		view.Fragments = append(view.Fragments, Fragment{Name: name, Values: values})
	}

	add("house", map[string]any{
		"heat_power":       r.reading(RoleHouse, "heat_power", 0, 1),
		"cop":              r.reading(RoleHouse, "cop", 1, 1),
		"room_temperature": r.reading(RoleThermostat, "room_temperature", 1, 1),
		"room_setpoint":    r.reading(RoleThermostat, "room_setpoint", 1, 1),
		"heating":          r.active(RoleThermostat, "heating"),
	})
	add("heatpump_1", r.heatpump(RoleHP1))
	if topology.IsDuo() {
		add("heatpump_2", r.heatpump(RoleHP2))
	}

	if topology.IsHybrid() {
		if topology.IsOpentherm() {
			add("boiler_opentherm", map[string]any{
				"water_in":   r.reading(RoleBoiler, "water_in", 1, 1),
				"water_out":  r.reading(RoleBoiler, "water_out", 1, 1),
				"heat_power": r.reading(RoleBoiler, "heat_power", 2, 0.001),
				"heating":    r.active(RoleBoiler, "heating"),
				"flame":      r.active(RoleBoiler, "flame"),
			})
		} else {
			add("boiler", map[string]any{
				"heat_power": r.reading(RoleBoiler, "heat_power", 2, 0.001),
				"on":         r.active(RoleBoiler, "cic_on"),
			})
		}
	}

	if topology.IsAllElectric() {
		add("heat_battery", map[string]any{
			"shower_minutes": r.reading(RoleHeatBattery, "shower_minutes", 0, 1),
			"top":            r.reading(RoleHeatBattery, "top", 1, 1),
			"middle":         r.reading(RoleHeatBattery, "middle", 1, 1),
			"bottom":         r.reading(RoleHeatBattery, "bottom", 1, 1),
		})
		add("heat_charger", map[string]any{
			"electrical_power": r.reading(RoleHeatCharger, "electrical_power", 2, 0.001),
			"supply":           r.reading(RoleHeatCharger, "supply", 1, 1),
			"pressure":         r.reading(RoleHeatCharger, "pressure", 2, 1),
		})
	}

	add("flowmeter", map[string]any{
		"temperature": r.reading(RoleFlowmeter, "temperature", 1, 1),
		"flowrate":    r.reading(RoleFlowmeter, "flowrate", 0, 1),
	})

	if topology.HasAirco {
		add("airco", map[string]any{"state": r.text(RoleHouse, "airco")})
	}
	if topology.HasSolarPanels {
		add("solar_panels", map[string]any{"power": r.reading(RoleHouse, "solar_panels", 2, 0.001)})
	}
	if topology.HasSolarCollector {
		add("solar_collector", nil)
	}
	if topology.HasBattery {
		add("battery", map[string]any{"level": r.reading(RoleHouse, "battery_level", 0, 1)})
	}
	if topology.HasHotWaterCylinder {
		add("hot_water_cylinder", map[string]any{"temperature": r.reading(RoleHouse, "hot_water_cylinder", 1, 1)})
	}
	return view
}

func (r *Resolver) heatpump(role Role) map[string]any {
	return map[string]any{
		"workingmode": r.text(role, "workingmode"),
		"power":       r.reading(role, "power", 2, 0.001),
		"power_input": r.reading(role, "power_input", 2, 0.001),
		"water_in":    r.reading(role, "water_in", 1, 1),
		"water_out":   r.reading(role, "water_out", 1, 1),
		"cop":         r.reading(role, "cop", 1, 1),
		"defrost":     r.active(role, "defrost"),
		"silentmode":  r.active(role, "silentmode"),
	}
}

func (r *Resolver) reading(role Role, field string, decimals int, scale float64) any {
	return r.Lookup(role, field, Options{Number: true, Decimals: Decimals(decimals), Scale: scale}).Raw()
}

func (r *Resolver) text(role Role, field string) string {
	return r.Lookup(role, field, Options{}).String()
}

func (r *Resolver) active(role Role, field string) bool {
	value := r.Lookup(role, field, Options{})
	return value.Kind == KindRecord && truthy(value.Record.Value)
}
