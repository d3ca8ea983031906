package energy

// Params holds the idealized electrochemical constants used by the estimator.
// They are demonstration values, not measurements.
type Params struct {
	// Open-circuit voltage model: V = BaseVoltage + NernstSlope*(7-pH) + ConductivityVoltage*conductivity.
	BaseVoltage         float64
	NernstSlope         float64
	ConductivityVoltage float64

	// Current model: I = conductivity * CellAreaCm2 * CurrentDensity (A/cm² per conductivity unit).
	CellAreaCm2    float64
	CurrentDensity float64

	// Efficiency: clamp(1 + TempCoefficient*(T-ReferenceTempC), MinEfficiency, MaxEfficiency).
	TempCoefficient float64
	ReferenceTempC  float64
	MinEfficiency   float64
	MaxEfficiency   float64

	// Reference load the installation is sized for.
	TargetVoltage float64
	TargetCurrent float64

	// Materials.
	JuicePerCellML float64
	ResinCostPerL  float64

	// Panel model.
	PanelGenerationHours float64
	DaysPerMonth         float64
	LowActivationFactor  float64
	PanelCloudyPct       float64
	FullSunLux           float64
}

// DefaultParams returns the documented constants.
func DefaultParams() Params {
	return Params{
		BaseVoltage:         0.45,
		NernstSlope:         0.059,
		ConductivityVoltage: 0.05,

		CellAreaCm2:    10,
		CurrentDensity: 0.0004,

		TempCoefficient: 0.01,
		ReferenceTempC:  20,
		MinEfficiency:   0.7,
		MaxEfficiency:   1.3,

		TargetVoltage: 3.0,
		TargetCurrent: 0.02,

		JuicePerCellML: 25,
		ResinCostPerL:  5,

		PanelGenerationHours: 8,
		DaysPerMonth:         30,
		LowActivationFactor:  0.3,
		PanelCloudyPct:       60,
		FullSunLux:           100000,
	}
}
