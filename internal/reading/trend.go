package reading

// Trend is the direction arrow reported alongside a sample.
type Trend string

const (
	TrendNone          Trend = "NONE"
	TrendFlat          Trend = "Flat"
	TrendFortyFiveUp   Trend = "FortyFiveUp"
	TrendFortyFiveDown Trend = "FortyFiveDown"
	TrendSingleUp      Trend = "SingleUp"
	TrendSingleDown    Trend = "SingleDown"
	TrendDoubleUp      Trend = "DoubleUp"
	TrendDoubleDown    Trend = "DoubleDown"
)

var trendSymbols = map[Trend]string{
	TrendNone:          "•",
	TrendFlat:          "🢂",
	TrendFortyFiveUp:   "🢅",
	TrendFortyFiveDown: "🢆",
	TrendSingleUp:      "🢁",
	TrendSingleDown:    "🢃",
	TrendDoubleUp:      "🢁🢁",
	TrendDoubleDown:    "🢃🢃",
}

// ParseTrend maps an upstream direction name; an empty name is TrendNone.
func ParseTrend(s string) Trend {
	if s == "" {
		return TrendNone
	}
	return Trend(s)
}

// Symbol returns the arrow for known trends and the raw name otherwise.
func (t Trend) Symbol() string {
	if sym, ok := trendSymbols[t]; ok {
		return sym
	}
	if t == "" {
		return trendSymbols[TrendNone]
	}
	return string(t)
}
