package models

import "time"

type ABTestStatus string

const (
	ABTestActive    ABTestStatus = "active"
	ABTestPaused    ABTestStatus = "paused"
	ABTestCompleted ABTestStatus = "completed"
)

const (
	MinHoldoutPercentage = 1
	MaxHoldoutPercentage = 50
)

type CreateABTestRequest struct {
	TestName              string `json:"testName"`
	ControlModelVersion   string `json:"controlModelVersion"`
	TreatmentModelVersion string `json:"treatmentModelVersion"`
	HoldoutPercentage     int    `json:"holdoutPercentage"`
}

type ABTest struct {
	TestID                string       `json:"testId"`
	TestName              string       `json:"testName"`
	ControlModelVersion   string       `json:"controlModelVersion"`
	TreatmentModelVersion string       `json:"treatmentModelVersion"`
	HoldoutPercentage     int          `json:"holdoutPercentage"`
	Status                ABTestStatus `json:"status"`
	CreatedAt             time.Time    `json:"createdAt"`
}

type GroupMetrics struct {
	Transactions int     `json:"transactions"`
	Accuracy     float64 `json:"accuracy"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1Score      float64 `json:"f1Score"`
}

type ABTestResults struct {
	TotalTransactions       int          `json:"totalTransactions"`
	ControlGroup            GroupMetrics `json:"controlGroup"`
	TreatmentGroup          GroupMetrics `json:"treatmentGroup"`
	StatisticalSignificance bool         `json:"statisticalSignificance"`
	// Winner is control, treatment, inconclusive, or empty when undecided.
	Winner string `json:"winner,omitempty"`
	// Mock marks canned results shown because the service call failed.
	Mock bool `json:"mock"`
}
