package normalize

import "fraud-console/internal/models"

// MockNotice is shown alongside MockABTestResults.
const MockNotice = "Showing mock results - API may not be implemented yet"

// MockABTestResults is the canned result set displayed when the results call
// fails. It is marked Mock so the page can flag it.
func MockABTestResults() models.ABTestResults {
	return models.ABTestResults{
		TotalTransactions: 10000,
		ControlGroup: models.GroupMetrics{
			Transactions: 5000,
			Accuracy:     0.92,
			Precision:    0.89,
			Recall:       0.87,
			F1Score:      0.88,
		},
		TreatmentGroup: models.GroupMetrics{
			Transactions: 4750,
			Accuracy:     0.94,
			Precision:    0.91,
			Recall:       0.89,
			F1Score:      0.90,
		},
		StatisticalSignificance: true,
		Winner:                  "treatment",
		Mock:                    true,
	}
}
