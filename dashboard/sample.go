// api/dashboard/sample.go
package dashboard

import (
	"time"

	"checkoutlens/api/models"
)

// samplePayload is the fixed placeholder dataset shown before any real event
// arrives, so a fresh install never renders an empty dashboard. Sample=true
// keeps it visibly distinguishable from real aggregates.
func samplePayload(now time.Time) *models.DashboardPayload {
	labels := make([]string, 0, 7)
	for i := 6; i >= 0; i-- {
		labels = append(labels, now.UTC().AddDate(0, 0, -i).Format("2006-01-02"))
	}

	abandonment := []float64{72.0, 68.5, 74.2, 65.0, 61.8, 70.3, 66.1}
	checkoutTime := []float64{184.0, 201.5, 167.2, 222.0, 190.4, 175.8, 198.3}

	abandonmentSeries := make([]models.SeriesPoint, 7)
	checkoutSeries := make([]models.SeriesPoint, 7)
	for i := 0; i < 7; i++ {
		abandonmentSeries[i] = models.SeriesPoint{Label: labels[i], Value: abandonment[i]}
		checkoutSeries[i] = models.SeriesPoint{Label: labels[i], Value: checkoutTime[i]}
	}

	return &models.DashboardPayload{
		GeneratedAt: now,
		Sample:      true,
		Cart: models.CartStats{
			TotalActions:    138,
			Added:           104,
			Removed:         34,
			AbandonmentRate: 32.7,
		},
		Checkout: models.CheckoutStats{
			Started:         52,
			Completed:       19,
			ConversionRate:  36.5,
			AbandonmentRate: 63.5,
		},
		Form: models.FormStats{
			AvgTimeSpentSec: 192.4,
			AvgFieldsFilled: 6.2,
		},
		TopValidationErrors: []models.RankedCount{
			{Key: "Please enter a valid email address", Count: 23},
			{Key: "Billing phone is a required field", Count: 17},
			{Key: "Invalid postcode / ZIP", Count: 11},
			{Key: "Please select a payment method", Count: 8},
			{Key: "Card number is incomplete", Count: 5},
		},
		TopAbandonedFields: []models.RankedCount{
			{Key: "Billing Phone", Count: 19},
			{Key: "Billing Company", Count: 14},
			{Key: "Order Comments", Count: 12},
			{Key: "Billing Address 2", Count: 9},
			{Key: "Shipping Postcode", Count: 6},
		},
		TopAbandonmentErrors: []models.RankedCount{
			{Key: "Please enter a valid email address", Count: 9},
			{Key: "Invalid postcode / ZIP", Count: 6},
			{Key: "Billing phone is a required field", Count: 4},
		},
		TopRemovedProducts: []models.RankedCount{
			{Key: "Sample Product A", Count: 12},
			{Key: "Sample Product B", Count: 9},
			{Key: "Sample Product C", Count: 7},
			{Key: "Sample Product D", Count: 4},
			{Key: "Sample Product E", Count: 2},
		},
		ChartLabels:        labels,
		AbandonmentSeries:  abandonmentSeries,
		CheckoutTimeSeries: checkoutSeries,
		FrictionCounts: []models.RankedCount{
			{Key: models.EventFieldChange, Count: 320},
			{Key: models.EventValidationError, Count: 64},
			{Key: models.EventRemoveFromCart, Count: 34},
			{Key: models.EventFormAbandonment, Count: 28},
			{Key: models.EventShippingMethodChange, Count: 21},
		},
	}
}
