package trend

// BalanceDatasetLabel names the single dataset of the balance chart.
const BalanceDatasetLabel = "Balance"

type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// ChartData is the JSON contract consumed by the dashboard chart. Labels and
// every dataset have the same length as the series.
type ChartData struct {
	Labels           []string  `json:"labels"`
	Datasets         []Dataset `json:"datasets"`
	CurrentBalance   float64   `json:"current_balance"`
	PercentageChange float64   `json:"percentage_change"`
}

// Chart converts a series and its change metrics into chart data.
func Chart(s Series) ChartData {
	data := make([]float64, len(s))
	for i, p := range s {
		data[i] = p.Balance.InexactFloat64()
	}
	m := Change(s)
	return ChartData{
		Labels:           s.Labels(),
		Datasets:         []Dataset{{Label: BalanceDatasetLabel, Data: data}},
		CurrentBalance:   m.Current.InexactFloat64(),
		PercentageChange: m.Percentage.Round(2).InexactFloat64(),
	}
}
