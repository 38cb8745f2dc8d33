package aggregation

const (
	// DefaultInstalledPowerKW is the rated output of the reference PV installation.
	DefaultInstalledPowerKW = 2.5
	// DefaultEfficiency is the share of rated output assumed over daylight hours.
	DefaultEfficiency = 0.2

	secondsPerHour = 3600
)

// EnergyEstimator converts daylight duration into an estimated PV yield.
type EnergyEstimator struct {
	InstalledPowerKW float64
	Efficiency       float64
}

// DefaultEnergyEstimator returns the estimator for the reference 2.5 kW installation.
func DefaultEnergyEstimator() EnergyEstimator {
	return EnergyEstimator{
		InstalledPowerKW: DefaultInstalledPowerKW,
		Efficiency:       DefaultEfficiency,
	}
}

// Estimate returns InstalledPowerKW * daylight hours * Efficiency.
// Non-positive or NaN durations yield 0.
func (e EnergyEstimator) Estimate(daylightSeconds float64) float64 {
	if !(daylightSeconds > 0) {
		return 0
	}
	return e.InstalledPowerKW * (daylightSeconds / secondsPerHour) * e.Efficiency
}
