package catalog

import "github.com/kuretru/quatt-gateway/entity"

const (
	unitCelsius       = "°C"
	unitWatt          = "W"
	unitBar           = "bar"
	unitEuroPerKWh    = "€/kWh"
	unitEuroPerM3     = "€/m³"
	unitHours         = "h"
	unitMinutes       = "min"
	unitLitersPerHour = "L/h"
	unitPercentage    = "%"
)

// SoundLevels are the options accepted by the max sound level selects.
var SoundLevels = []string{"normal", "library", "silent"}

func sensor(device entity.DeviceType, key string, name string, icon string) Description {
	return Description{Device: device, Platform: PlatformSensor, Key: key, Name: name, Icon: icon}
}

func binarySensor(device entity.DeviceType, key string, name string, icon string) Description {
	return Description{Device: device, Platform: PlatformBinarySensor, Key: key, Name: name, Icon: icon}
}

func temperature(device entity.DeviceType, key string, name string) Description {
	return Description{
		Device: device, Platform: PlatformSensor, Key: key, Name: name, Icon: "mdi:thermometer",
		Unit: unitCelsius, DeviceClass: "temperature", StateClass: "measurement", Precision: precision(2),
	}
}

func power(device entity.DeviceType, key string, name string, icon string) Description {
	return Description{
		Device: device, Platform: PlatformSensor, Key: key, Name: name, Icon: icon,
		Unit: unitWatt, DeviceClass: "power", StateClass: "measurement", Precision: precision(0),
	}
}

func measurement(device entity.DeviceType, key string, name string, icon string, unit string, digits int) Description {
	return Description{
		Device: device, Platform: PlatformSensor, Key: key, Name: name, Icon: icon,
		Unit: unit, StateClass: "measurement", Precision: precision(digits),
	}
}

func remote(d Description) Description {
	d.MobileAPI = true
	return d
}

func diagnostic(d Description) Description {
	d.EntityCategory = CategoryDiagnostic
	return d
}

func duo(d Description) Description {
	d.Duo = true
	return d
}

func allElectric(d Description) Description {
	d.AllElectric = true
	return d
}

func hybrid(d Description) Description {
	d.Hybrid = true
	return d
}

func opentherm(d Description) Description {
	d.Opentherm = true
	return d
}

func hubDescriptions() []Description {
	hub := entity.DeviceTypeHub
	timestamp := sensor(hub, "time.tsHuman", "Timestamp last update", "mdi:clock-outline")
	timestamp.DeviceClass = "timestamp"
	installedAt := sensor(hub, "installedAt", "Installed at", "mdi:calendar")
	installedAt.DeviceClass = "timestamp"
	insightsStartAt := sensor(hub, "insightsStartAt", "Insights start at", "mdi:calendar")
	insightsStartAt.DeviceClass = "timestamp"

	dayMaxSoundLevel := Description{
		Device: hub, Platform: PlatformSelect, Key: "dayMaxSoundLevel", Name: "Day max sound level",
		Icon: "mdi:volume-high", EntityCategory: CategoryConfig, Options: SoundLevels, MobileAPI: true,
	}
	nightMaxSoundLevel := Description{
		Device: hub, Platform: PlatformSelect, Key: "nightMaxSoundLevel", Name: "Night max sound level",
		Icon: "mdi:volume-low", EntityCategory: CategoryConfig, Options: SoundLevels, MobileAPI: true,
	}

	return []Description{
		timestamp,
		power(hub, "computedHeatPower", "Heat power", "mdi:heat-wave"),
		measurement(hub, "computedCop", "COP", "mdi:heat-pump", "CoP", 2),
		duo(power(hub, "computedPowerInput", "Total power input", "mdi:lightning-bolt")),
		duo(power(hub, "computedPower", "Total power", "mdi:heat-wave")),
		power(hub, "computedSystemPower", "Total system power", "mdi:heat-wave"),
		duo(temperature(hub, "computedWaterDelta", "Total water delta")),
		duo(measurement(hub, "computedQuattCop", "Total Quatt COP", "mdi:heat-pump", "CoP", 2)),
		sensor(hub, "qc.supervisoryControlMode", "QC supervisory control mode code", "mdi:numeric"),
		sensor(hub, "qc.computedSupervisoryControlMode", "QC supervisory control mode", "mdi:state-machine"),
		allElectric(sensor(hub, "qcAllE.allESupervisoryControlMode", "QC All-Electric supervisory control mode code", "mdi:numeric")),
		allElectric(sensor(hub, "qcAllE.computedAllESupervisoryControlMode", "QC All-Electric supervisory control mode", "mdi:state-machine")),
		measurement(hub, "qc.electricityPriceUsed", "Electricity price used", "mdi:currency-eur", unitEuroPerKWh, 3),
		sensor(hub, "system.computedElectricityTariffType", "Electricity tariff type", "mdi:cash-clock"),
		measurement(hub, "qc.gasPriceUsed", "Gas price used", "mdi:currency-eur", unitEuroPerM3, 3),
		sensor(hub, "system.computedGasTariffType", "Gas tariff type", "mdi:cash-clock"),
		diagnostic(sensor(hub, "system.hostName", "System hostname", "mdi:network-outline")),
		binarySensor(hub, "qc.stickyPumpProtectionEnabled", "QC pump protection", "mdi:shield-check"),
		allElectric(binarySensor(hub, "qcAllE.isAntilegionellaActive", "Anti legionella active", "mdi:bacteria")),

		remote(diagnostic(sensor(hub, "installationId", "Installation ID", "mdi:identifier"))),
		remote(diagnostic(installedAt)),
		remote(sensor(hub, "status", "Status", "mdi:information")),
		remote(diagnostic(sensor(hub, "cableConnectionStatus", "Cable connection status", "mdi:ethernet"))),
		remote(diagnostic(sensor(hub, "lteConnectionStatus", "LTE connection status", "mdi:signal"))),
		remote(diagnostic(sensor(hub, "wifiConnectionStatus", "WiFi connection status", "mdi:wifi"))),
		remote(diagnostic(sensor(hub, "wifiSSID", "WiFi SSID", "mdi:wifi"))),
		remote(measurement(hub, "electricityPrice", "Electricity price", "mdi:currency-eur", unitEuroPerKWh, 3)),
		remote(measurement(hub, "dayElectricityPrice", "Day electricity price", "mdi:currency-eur", unitEuroPerKWh, 3)),
		remote(measurement(hub, "nightElectricityPrice", "Night electricity price", "mdi:currency-eur", unitEuroPerKWh, 3)),
		remote(measurement(hub, "gasPrice", "Gas price", "mdi:currency-eur", unitEuroPerM3, 3)),
		remote(sensor(hub, "silentMode", "Silent mode", "mdi:volume-off")),
		remote(sensor(hub, "supervisoryControlMode", "Supervisory control mode", "mdi:state-machine")),
		remote(diagnostic(sensor(hub, "numberOfHeatPumps", "Number of heat pumps", "mdi:heat-pump"))),
		remote(diagnostic(insightsStartAt)),
		remote(diagnostic(sensor(hub, "quattBuild", "Quatt build", "mdi:information-outline"))),
		remote(power(hub, "quattHeatingProductionAmount", "Quatt heating production amount", "mdi:heat-wave")),
		remote(power(hub, "electricityConsumptionAmount", "Electricity consumption amount", "mdi:lightning-bolt")),
		remote(diagnostic(sensor(hub, "name", "Name", "mdi:account"))),
		remote(diagnostic(sensor(hub, "zipCode", "Zip code", "mdi:map-marker"))),
		remote(diagnostic(sensor(hub, "country", "Country", "mdi:flag"))),
		remote(diagnostic(sensor(hub, "orderNumber", "Order number", "mdi:numeric"))),
		remote(measurement(hub, "electricityNightTimeStartHour", "Electricity night time start hour", "mdi:clock-start", unitHours, 0)),
		remote(measurement(hub, "electricityNightTimeEndHour", "Electricity night time end hour", "mdi:clock-end", unitHours, 0)),
		remote(measurement(hub, "soundNightTimeStartHour", "Sound night time start hour", "mdi:clock-start", unitHours, 0)),
		remote(measurement(hub, "soundNightTimeEndHour", "Sound night time end hour", "mdi:clock-end", unitHours, 0)),
		remote(measurement(hub, "soundNightTimeStartMin", "Sound night time start min", "mdi:clock-start", unitMinutes, 0)),
		remote(measurement(hub, "soundNightTimeEndMin", "Sound night time end min", "mdi:clock-end", unitMinutes, 0)),
		remote(diagnostic(binarySensor(hub, "isScanningForWifi", "Scanning for WiFi", "mdi:wifi-sync"))),
		remote(binarySensor(hub, "usePricingToLimitHeatPump", "Use pricing to limit heat pump", "mdi:cash-lock")),
		remote(binarySensor(hub, "avoidNighttimeCharging", "Avoid nighttime charging", "mdi:weather-night")),
		remote(diagnostic(binarySensor(hub, "isHp1Connected", "HP1 connected", "mdi:connection"))),
		remote(duo(diagnostic(binarySensor(hub, "isHp2Connected", "HP2 connected", "mdi:connection")))),
		remote(diagnostic(binarySensor(hub, "isThermostatConnected", "Thermostat connected", "mdi:connection"))),
		remote(diagnostic(binarySensor(hub, "isBoilerConnected", "Boiler connected", "mdi:connection"))),
		remote(diagnostic(binarySensor(hub, "isTemperatureSensorConnected", "Temperature sensor connected", "mdi:connection"))),
		remote(diagnostic(binarySensor(hub, "isControllerAlive", "Controller alive", "mdi:heart-pulse"))),
		remote(diagnostic(binarySensor(hub, "wifiEnabled", "WiFi enabled", "mdi:wifi"))),
		remote(diagnostic(binarySensor(hub, "hasSoundSlider", "Has sound slider", "mdi:tune-vertical"))),
		remote(diagnostic(binarySensor(hub, "supportsForgetWifi", "Supports forget WiFi", "mdi:wifi-remove"))),
		remote(binarySensor(hub, "isCentralHeatingOn", "Central heating on", "mdi:radiator")),
		remote(diagnostic(binarySensor(hub, "hasDynamicPricing", "Has dynamic pricing", "mdi:cash-clock"))),
		dayMaxSoundLevel,
		nightMaxSoundLevel,
	}
}

func boilerDescriptions() []Description {
	boiler := entity.DeviceTypeBoiler
	pressure := measurement(boiler, "boiler.otFbWaterPressure", "Water pressure", "mdi:gauge", unitBar, 2)
	pressure.DeviceClass = "pressure"

	return []Description{
		hybrid(opentherm(temperature(boiler, "boiler.otFbSupplyInletTemperature", "Temperature water inlet"))),
		hybrid(opentherm(temperature(boiler, "boiler.otFbSupplyOutletTemperature", "Temperature water outlet"))),
		hybrid(opentherm(pressure)),
		hybrid(power(boiler, "boiler.computedBoilerHeatPower", "Heat power", "mdi:heat-wave")),
		hybrid(opentherm(binarySensor(boiler, "boiler.otFbChModeActive", "Heating", "mdi:fire"))),
		hybrid(opentherm(binarySensor(boiler, "boiler.otFbDhwActive", "Domestic hot water", "mdi:water-boiler"))),
		hybrid(opentherm(binarySensor(boiler, "boiler.otFbFlameOn", "Flame", "mdi:fire"))),
		hybrid(binarySensor(boiler, "boiler.otTbCH", "CIC heating", "mdi:fire")),
		hybrid(binarySensor(boiler, "boiler.oTtbTurnOnOffBoilerOn", "CIC on/off mode", "mdi:power")),

		remote(power(boiler, "boilerPower", "Boiler power", "mdi:fire")),
		remote(temperature(boiler, "boilerWaterTemperatureIn", "Boiler water temperature in")),
		remote(temperature(boiler, "boilerWaterTemperatureOut", "Boiler water temperature out")),
		remote(binarySensor(boiler, "boilerOn", "Boiler on", "mdi:power")),
	}
}

func flowmeterDescriptions() []Description {
	flowmeter := entity.DeviceTypeFlowmeter
	return []Description{
		temperature(flowmeter, "flowMeter.waterSupplyTemperature", "Temperature"),
		measurement(flowmeter, "qc.flowRateFiltered", "Flowrate", "mdi:gauge", unitLitersPerHour, 2),
	}
}

func thermostatDescriptions() []Description {
	thermostat := entity.DeviceTypeThermostat
	return []Description{
		temperature(thermostat, "thermostat.otFtControlSetpoint", "Control setpoint"),
		temperature(thermostat, "thermostat.otFtRoomSetpoint", "Room setpoint"),
		temperature(thermostat, "thermostat.otFtRoomTemperature", "Room temperature"),
		binarySensor(thermostat, "thermostat.otFtChEnabled", "Heating", "mdi:fire"),
		binarySensor(thermostat, "thermostat.otFtDhwEnabled", "Domestic hot water", "mdi:water-boiler"),
		binarySensor(thermostat, "thermostat.otFtCoolingEnabled", "Cooling", "mdi:snowflake"),

		remote(temperature(thermostat, "temperatureOutside", "Temperature outside")),
		remote(binarySensor(thermostat, "thermostatFlameOn", "Flame on", "mdi:fire")),
		remote(binarySensor(thermostat, "showThermostatTemperatures", "Show thermostat temperatures", "mdi:thermometer")),
	}
}

func heatBatteryDescriptions() []Description {
	battery := entity.DeviceTypeBattery
	return []Description{
		allElectric(measurement(battery, "hb.showerMinutes", "Shower minutes remaining", "mdi:shower", unitMinutes, 0)),
		allElectric(temperature(battery, "hb.topTemperature", "Top temperature")),
		allElectric(temperature(battery, "hb.middleTemperature", "Middle temperature")),
		allElectric(temperature(battery, "hb.bottomTemperature", "Bottom temperature")),

		remote(allElectric(diagnostic(sensor(battery, "allEStatus.heatBatterySerialNumber", "Serial number", "mdi:identifier")))),
		remote(allElectric(sensor(battery, "allEStatus.heatBatteryStatus", "Status", "mdi:information"))),
		remote(allElectric(diagnostic(sensor(battery, "allEStatus.heatBatterySize", "Size", "mdi:battery")))),
		remote(allElectric(measurement(battery, "allEStatus.heatBatteryPercentage", "Percentage", "mdi:battery-heart", unitPercentage, 0))),
		remote(allElectric(binarySensor(battery, "allEStatus.isHeatBatteryCharging", "Charging", "mdi:battery-charging"))),
		remote(allElectric(binarySensor(battery, "allEStatus.isDomesticHotWaterOn", "Domestic hot water on", "mdi:water-boiler"))),
		remote(allElectric(binarySensor(battery, "allEStatus.showerMinutesDegraded", "Shower minutes degraded", "mdi:shower"))),
	}
}

func heatChargerDescriptions() []Description {
	charger := entity.DeviceTypeCharger
	pressure := measurement(charger, "hc.heatingSystemPressure", "Heating system pressure", "mdi:gauge", unitBar, 2)
	pressure.DeviceClass = "pressure"

	return []Description{
		allElectric(power(charger, "hc.electricalPower", "Electrical power", "mdi:lightning-bolt")),
		allElectric(temperature(charger, "hc.chHeatExchangerInletTemperature", "Heat exchanger inlet temperature")),
		allElectric(pressure),
		allElectric(temperature(charger, "hc.distributionSystemSupplyTemperature", "Distribution system supply temperature")),

		remote(allElectric(diagnostic(sensor(charger, "allEStatus.heatChargerSerialNumber", "Serial number", "mdi:identifier")))),
	}
}
