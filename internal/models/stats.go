package models

import "time"

type HealthStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ModelPerformance struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1Score"`
}

type Last24Hours struct {
	Requests   int     `json:"requests"`
	AvgLatency float64 `json:"avgLatency"`
}

type InferenceStats struct {
	TotalInferences    int64             `json:"total_inferences"`
	AvgLatencyMS       float64           `json:"avg_latency_ms"`
	MaxLatencyMS       float64           `json:"max_latency_ms"`
	MinLatencyMS       float64           `json:"min_latency_ms"`
	P95LatencyMS       float64           `json:"p95_latency_ms"`
	P99LatencyMS       float64           `json:"p99_latency_ms"`
	CacheHitRate       float64           `json:"cache_hit_rate"`
	SubMillisecondRate float64           `json:"sub_millisecond_rate"`
	ModelPerformance   *ModelPerformance `json:"modelPerformance,omitempty"`
	Last24Hours        *Last24Hours      `json:"last24Hours,omitempty"`
}

type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastInfo    ToastLevel = "info"
)

// Toast is a transient notification attached to the outcome of one action.
type Toast struct {
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

func NewToast(level ToastLevel, message string) Toast {
	return Toast{Level: level, Message: message, At: time.Now()}
}
