package models

import "time"

// RankedCount is one row of a top-K ranking.
type RankedCount struct {
	Key   string `json:"key"`
	Count uint64 `json:"count"`
}

// SeriesPoint is one calendar-day point of a dashboard chart.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// CartStats summarizes cart activity and the cart abandonment funnel.
type CartStats struct {
	TotalActions    uint64  `json:"total_actions"`
	Added           uint64  `json:"added"`
	Removed         uint64  `json:"removed"`
	AbandonmentRate float64 `json:"abandonment_rate"`
}

// CheckoutStats summarizes the checkout funnel.
type CheckoutStats struct {
	Started         uint64  `json:"started"`
	Completed       uint64  `json:"completed"`
	ConversionRate  float64 `json:"conversion_rate"`
	AbandonmentRate float64 `json:"abandonment_rate"`
}

// FormStats summarizes form_abandonment beacons.
type FormStats struct {
	AvgTimeSpentSec float64 `json:"avg_time_spent_sec"`
	AvgFieldsFilled float64 `json:"avg_fields_filled"`
}

// DashboardPayload is the single document the dashboard renders from. Sample
// is true when the store held no real data and the charts carry fabricated
// placeholder datasets instead.
type DashboardPayload struct {
	GeneratedAt time.Time `json:"generated_at"`
	Sample      bool      `json:"sample"`

	Cart     CartStats     `json:"cart"`
	Checkout CheckoutStats `json:"checkout"`
	Form     FormStats     `json:"form"`

	TopValidationErrors  []RankedCount `json:"top_validation_errors"`
	TopAbandonedFields   []RankedCount `json:"top_abandoned_fields"`
	TopAbandonmentErrors []RankedCount `json:"top_abandonment_errors"`
	TopRemovedProducts   []RankedCount `json:"top_removed_products"`

	ChartLabels       []string      `json:"chart_labels"`
	AbandonmentSeries []SeriesPoint `json:"abandonment_series"`
	CheckoutTimeSeries []SeriesPoint `json:"checkout_time_series"`

	FrictionCounts []RankedCount `json:"friction_counts"`
}
