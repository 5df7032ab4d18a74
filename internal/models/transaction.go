package models

// FraudThreshold is the score above which a transaction is flagged.
const FraudThreshold = 0.5

type Transaction struct {
	TransactionID string   `json:"transaction_id"`
	Amount        float64  `json:"amount"`
	Currency      string   `json:"currency"`
	PaymentMethod string   `json:"payment_method"`
	CountryCode   string   `json:"country_code"`
	UserID        string   `json:"user_id"`
	Timestamp     string   `json:"timestamp,omitempty"`
	FraudScore    *float64 `json:"fraud_score,omitempty"`
	IsFraud       *bool    `json:"is_fraud,omitempty"`
}

type ScoreResult struct {
	Success       bool     `json:"success"`
	FraudScore    float64  `json:"fraud_score"`
	TransactionID string   `json:"transaction_id"`
	LatencyMS     float64  `json:"latency_ms"`
	HasLatency    bool     `json:"has_latency"`
	ModelVersion  string   `json:"model_version"`
	RiskFactors   []string `json:"risk_factors"`
	// Synthetic is set when the service omitted fraud_score and a stand-in
	// value was drawn.
	Synthetic bool `json:"synthetic"`
}

func (r ScoreResult) Flagged() bool {
	return r.FraudScore > FraudThreshold
}

type BatchResult struct {
	Success           bool          `json:"success"`
	Results           []ScoreResult `json:"results"`
	ProcessingTimeMS  float64       `json:"processing_time_ms"`
	HasProcessingTime bool          `json:"has_processing_time"`
}

// PaymentRequest is forwarded to the service's A/B routed processing endpoint.
type PaymentRequest struct {
	Transaction
	MerchantID string `json:"merchant_id,omitempty"`
}
