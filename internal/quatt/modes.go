package quatt

// Supervisory control modes of a hybrid installation.
const (
	ModeStandby                   = 0
	ModeStandbyHeating            = 1
	ModeHeatingHeatpumpOnly       = 2
	ModeHeatingHeatpumpPlusBoiler = 3
	ModeHeatingBoilerOnly         = 4
	ModeAntifreezeBoilerOn        = 96
	ModeAntifreezeBoilerPrepump   = 97
	ModeAntifreezeCirculation     = 98
	ModeFaultCirculationPumpOn    = 99

	// Codes from here on are commissioning modes.
	modeCommissioningStart = 100
)

var supervisoryControlModes = map[int]string{
	ModeStandby:                   "Standby",
	ModeStandbyHeating:            "Standby - heating",
	ModeHeatingHeatpumpOnly:       "Heating - heatpump only",
	ModeHeatingHeatpumpPlusBoiler: "Heating - heatpump + boiler",
	ModeHeatingBoilerOnly:         "Heating - boiler only",
	ModeAntifreezeBoilerOn:        "Anti-freeze protection - boiler on",
	ModeAntifreezeBoilerPrepump:   "Anti-freeze protection - boiler pre-pump",
	ModeAntifreezeCirculation:     "Anti-freeze protection - water circulation",
	ModeFaultCirculationPumpOn:    "Fault - circulation pump on",
}

var allElectricSupervisoryControlModes = map[int]string{
	0:  "Idle",
	1:  "Pre/post pumping",
	2:  "Charge - normal",
	3:  "Charge - boost",
	4:  "Charge - backup",
	5:  "Charge - normal backup",
	6:  "Charge - CH backup",
	7:  "CH backup",
	8:  "Discharge",
	9:  "Discharge CH backup",
	10: "Sticky pump protection",
	11: "Pre/post pump to charging",
	12: "Pre/post pump to discharging",
}

var electricityTariffTypes = map[int]string{
	0: "Single tariff",
	1: "Double tariff",
	2: "Dynamic tariff",
}

var gasTariffTypes = map[int]string{
	0: "Single tariff",
	2: "Dynamic tariff",
}

// Specific heat conversion factors for water at 2 bar, keyed by temperature in C.
var conversionFactors = map[int]float64{
	5:  1.166667,
	10: 1.164444,
	15: 1.162889,
	20: 1.161111,
	25: 1.157438,
	30: 1.157753,
	35: 1.157931,
	40: 1.157964,
	45: 1.157859,
	50: 1.157617,
	55: 1.157243,
	60: 1.156742,
	65: 1.156117,
	70: 1.155369,
	75: 1.154503,
	80: 1.153528,
}

// ConversionFactor returns the factor of the tabulated temperature nearest to t.
// Ties resolve to the lower temperature.
func ConversionFactor(t float64) float64 {
	nearest := 5
	best := -1.0
	for temperature := 5; temperature <= 80; temperature += 5 {
		diff := t - float64(temperature)
		if diff < 0 {
			diff = -diff
		}
		if best < 0 || diff < best {
			best = diff
			nearest = temperature
		}
	}
	return conversionFactors[nearest]
}
