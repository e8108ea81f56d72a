package stats

// Distribution describes one numeric field over a set of events
type Distribution struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// Describe summarizes values; it returns nil for an empty slice
func Describe(values []float64) *Distribution {
	if len(values) == 0 {
		return nil
	}

	sorted := Sorted(values)
	return &Distribution{
		Count:  len(sorted),
		Min:    sorted[0],
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
		P90:    Quantile(sorted, 0.9),
		Max:    sorted[len(sorted)-1],
		Mean:   Mean(sorted),
		StdDev: StdDev(sorted),
	}
}
