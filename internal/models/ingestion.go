package models

import "time"

type ETLRequest struct {
	Source            string `json:"source"`
	Target            string `json:"target"`
	IncludeHistorical bool   `json:"includeHistorical"`
}

type ETLJob struct {
	JobID     string    `json:"jobId"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
}

type UploadResult struct {
	Filename         string   `json:"filename"`
	Size             int64    `json:"size"`
	RecordsProcessed int      `json:"recordsProcessed"`
	Errors           []string `json:"errors"`
	ProcessingTimeMS float64  `json:"processingTime"`
	Message          string   `json:"message,omitempty"`
}

type WebhookPayment struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`
	CountryCode   string  `json:"country_code"`
	UserID        string  `json:"user_id"`
	MerchantID    string  `json:"merchant_id"`
}

type WebhookEvent struct {
	EventType string         `json:"event_type"`
	Timestamp string         `json:"timestamp"`
	Data      WebhookPayment `json:"data"`
}
