package config

import "sort"

// ValidTarget reports whether pct can be used as an attendance target.
func ValidTarget(pct float64) bool {
	return pct > 0 && pct < 100
}

// Target is a named attendance percentage to project against.
type Target struct {
	Label string
	Pct   float64
}

// Targets returns the configured targets in ascending order. When both
// targets are equal only one is returned.
func (p PredictorConfig) Targets() []Target {
	ts := []Target{
		{Label: "Minimum", Pct: p.MinimumTarget},
		{Label: "Recommended", Pct: p.RecommendedTarget},
	}
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Pct < ts[j].Pct })
	if ts[0].Pct == ts[1].Pct {
		return ts[1:]
	}
	return ts
}

// LabelFor names pct if it matches a configured target, else "Custom".
func (p PredictorConfig) LabelFor(pct float64) string {
	for _, t := range p.Targets() {
		if t.Pct == pct {
			return t.Label
		}
	}
	return "Custom"
}
