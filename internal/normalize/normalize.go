package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"fraud-console/internal/errors"
	"fraud-console/internal/models"
)

const defaultModelVersion = "v1.0"

// Draw yields a pseudo-random value in [0,1). It is only consulted when the
// service leaves fraud_score out.
type Draw func() float64

func Health(raw json.RawMessage) (models.HealthStatus, error) {
	env, err := parse(raw)
	if err != nil {
		return models.HealthStatus{}, err
	}

	var status models.HealthStatus
	status.Message = lookupString(env.topFirst(), "message")

	var success bool
	if lookup([]object{env.top}, &success, "success") {
		status.Success = success
		return status, nil
	}

	switch strings.ToLower(lookupString(env.topFirst(), "status")) {
	case "healthy", "ok", "up", "operational":
		status.Success = true
	}
	return status, nil
}

func Stats(raw json.RawMessage) (models.InferenceStats, error) {
	env, err := parse(raw)
	if err != nil {
		return models.InferenceStats{}, err
	}
	if _, rejected := env.rejected(); rejected && env.data == nil {
		return models.InferenceStats{}, errors.UpstreamBadResponse(nil, "inference stats response carried no data")
	}

	layers := env.dataFirst()
	var stats models.InferenceStats

	if total, ok := lookupCount(layers, "total_inferences", "totalInferences"); ok {
		stats.TotalInferences = total
	}
	stats.AvgLatencyMS = nonNegative(layers, "avg_latency_ms", "avgLatencyMs")
	stats.MaxLatencyMS = nonNegative(layers, "max_latency_ms", "maxLatencyMs")
	stats.MinLatencyMS = nonNegative(layers, "min_latency_ms", "minLatencyMs")
	stats.P95LatencyMS = nonNegative(layers, "p95_latency_ms", "p95LatencyMs")
	stats.P99LatencyMS = nonNegative(layers, "p99_latency_ms", "p99LatencyMs")

	if v, ok := lookupFloat(layers, "cache_hit_rate", "cacheHitRate"); ok {
		stats.CacheHitRate = clampUnit(v)
	}
	if v, ok := lookupFloat(layers, "sub_millisecond_rate", "subMillisecondRate"); ok {
		stats.SubMillisecondRate = clampUnit(v)
	}

	if fields, ok := lookupObject(layers, "modelPerformance", "model_performance"); ok {
		stats.ModelPerformance = &models.ModelPerformance{
			Accuracy:  unit(fields, "accuracy"),
			Precision: unit(fields, "precision"),
			Recall:    unit(fields, "recall"),
			F1Score:   unit(fields, "f1Score", "f1_score"),
		}
	}

	if fields, ok := lookupObject(layers, "last24Hours", "last_24_hours"); ok {
		requests, _ := lookupCount(fields, "requests")
		stats.Last24Hours = &models.Last24Hours{
			Requests:   int(requests),
			AvgLatency: nonNegative(fields, "avgLatency", "avg_latency"),
		}
	}

	return stats, nil
}

// Score normalizes a fast-inference answer. submittedID stands in when the
// service does not echo the transaction id.
func Score(raw json.RawMessage, submittedID string, draw Draw) (models.ScoreResult, error) {
	env, err := parse(raw)
	if err != nil {
		return models.ScoreResult{}, err
	}
	if msg, rejected := env.rejected(); rejected {
		return models.ScoreResult{}, errors.Rejected(msg)
	}
	return scoreFrom(env.topFirst(), submittedID, draw), nil
}

func scoreFrom(layers []object, submittedID string, draw Draw) models.ScoreResult {
	result := models.ScoreResult{
		Success:       true,
		TransactionID: lookupString(layers, "transaction_id", "transactionId"),
		ModelVersion:  lookupString(layers, "model_version", "modelVersion"),
	}

	if score, ok := lookupFloat(layers, "fraud_score", "fraudScore"); ok {
		result.FraudScore = clampUnit(score)
	} else {
		result.FraudScore = clampUnit(drawOrZero(draw))
		result.Synthetic = true
	}

	if latency, ok := lookupFloat(layers, "latency_ms", "latencyMs"); ok {
		result.LatencyMS = math.Max(latency, 0)
		result.HasLatency = true
	}

	if result.TransactionID == "" {
		result.TransactionID = submittedID
	}
	if result.ModelVersion == "" {
		result.ModelVersion = defaultModelVersion
	}

	var factors []string
	if lookup(layers, &factors, "risk_factors", "riskFactors") {
		result.RiskFactors = factors
	}
	return result
}

// Batch normalizes a batch-inference answer; submitted supplies ids for
// entries that do not echo one, matched by position.
func Batch(raw json.RawMessage, submitted []models.Transaction, draw Draw) (models.BatchResult, error) {
	env, err := parse(raw)
	if err != nil {
		return models.BatchResult{}, err
	}
	if msg, rejected := env.rejected(); rejected {
		return models.BatchResult{}, errors.Rejected(msg)
	}

	layers := env.topFirst()
	var entries []object
	if !lookup(layers, &entries, "results", "predictions") {
		if err := json.Unmarshal(env.top["data"], &entries); err != nil {
			return models.BatchResult{}, errors.UpstreamBadResponse(nil, "batch inference response has no results")
		}
	}

	result := models.BatchResult{Success: true, Results: make([]models.ScoreResult, 0, len(entries))}
	for i, entry := range entries {
		id := ""
		if i < len(submitted) {
			id = submitted[i].TransactionID
		}
		result.Results = append(result.Results, scoreFrom([]object{entry}, id, draw))
	}

	if ms, ok := lookupFloat(layers, "processing_time_ms", "processingTimeMs"); ok {
		result.ProcessingTimeMS = math.Max(ms, 0)
		result.HasProcessingTime = true
	}
	return result, nil
}

// ABTestResults accepts {"results": {...}}, {"data": {"results": {...}}},
// {"data": {...}} or the flat object.
func ABTestResults(raw json.RawMessage) (models.ABTestResults, error) {
	env, err := parse(raw)
	if err != nil {
		return models.ABTestResults{}, err
	}

	var nested object
	layers := env.topFirst()
	if lookup(layers, &nested, "results") {
		layers = []object{nested}
	} else {
		layers = env.dataFirst()
	}

	var results models.ABTestResults
	control, okControl := lookupGroup(layers, "controlGroup", "control_group")
	treatment, okTreatment := lookupGroup(layers, "treatmentGroup", "treatment_group")
	if !okControl || !okTreatment {
		return models.ABTestResults{}, errors.UpstreamBadResponse(nil, "A/B test results are missing a group")
	}
	results.ControlGroup = control
	results.TreatmentGroup = treatment

	if total, ok := lookupCount(layers, "totalTransactions", "total_transactions"); ok {
		results.TotalTransactions = int(total)
	} else {
		results.TotalTransactions = results.ControlGroup.Transactions + results.TreatmentGroup.Transactions
	}
	lookup(layers, &results.StatisticalSignificance, "statisticalSignificance", "statistical_significance")

	switch winner := strings.ToLower(lookupString(layers, "winner")); winner {
	case "control", "treatment", "inconclusive":
		results.Winner = winner
	}

	return results, nil
}

// CreatedTestID returns the id assigned by the service, or "" if none.
func CreatedTestID(raw json.RawMessage) (string, error) {
	env, err := parse(raw)
	if err != nil {
		return "", err
	}
	if msg, rejected := env.rejected(); rejected {
		return "", errors.Rejected(msg)
	}
	return lookupString(env.topFirst(), "testId", "test_id", "id"), nil
}

func ETLJob(raw json.RawMessage, now time.Time) (models.ETLJob, error) {
	env, err := parse(raw)
	if err != nil {
		return models.ETLJob{}, err
	}
	if msg, rejected := env.rejected(); rejected {
		return models.ETLJob{}, errors.Rejected(msg)
	}

	layers := env.topFirst()
	job := models.ETLJob{
		JobID:     lookupString(layers, "jobId", "job_id"),
		Status:    lookupString(layers, "status"),
		StartedAt: now,
	}
	if job.JobID == "" {
		job.JobID = "N/A"
	}
	if job.Status == "" {
		job.Status = "Running"
	}
	if started := lookupString(layers, "startedAt", "started_at"); started != "" {
		if t, err := time.Parse(time.RFC3339, started); err == nil {
			job.StartedAt = t
		}
	}
	return job, nil
}

func Upload(raw json.RawMessage, filename string) (models.UploadResult, error) {
	env, err := parse(raw)
	if err != nil {
		return models.UploadResult{}, err
	}
	if msg, rejected := env.rejected(); rejected {
		return models.UploadResult{}, errors.Rejected(msg)
	}

	layers := env.dataFirst()
	result := models.UploadResult{
		Filename: lookupString(layers, "filename", "fileName"),
		Message:  lookupString(env.topFirst(), "message"),
	}
	if result.Filename == "" {
		result.Filename = filename
	}
	if size, ok := lookupCount(layers, "size"); ok {
		result.Size = size
	}
	if n, ok := lookupCount(layers, "recordsProcessed", "records_processed"); ok {
		result.RecordsProcessed = int(n)
	}
	if ms, ok := lookupFloat(layers, "processingTime", "processing_time_ms"); ok {
		result.ProcessingTimeMS = math.Max(ms, 0)
	}
	lookup(layers, &result.Errors, "errors")
	return result, nil
}

// Ack checks a fire-and-forget answer (webhook, polling) and returns the
// server's message, if any.
func Ack(raw json.RawMessage) (string, error) {
	env, err := parse(raw)
	if err != nil {
		return "", err
	}
	if msg, rejected := env.rejected(); rejected {
		return "", errors.Rejected(msg)
	}
	return lookupString(env.topFirst(), "message"), nil
}

func nonNegative(layers []object, keys ...string) float64 {
	v, _ := lookupFloat(layers, keys...)
	return math.Max(v, 0)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func unit(layers []object, keys ...string) float64 {
	v, _ := lookupFloat(layers, keys...)
	return clampUnit(v)
}

// lookupGroup decodes one arm of an A/B test with the same leniency as the
// top-level fields.
func lookupGroup(layers []object, keys ...string) (models.GroupMetrics, bool) {
	fields, ok := lookupObject(layers, keys...)
	if !ok {
		return models.GroupMetrics{}, false
	}
	transactions, _ := lookupCount(fields, "transactions")
	return models.GroupMetrics{
		Transactions: int(transactions),
		Accuracy:     unit(fields, "accuracy"),
		Precision:    unit(fields, "precision"),
		Recall:       unit(fields, "recall"),
		F1Score:      unit(fields, "f1Score", "f1_score"),
	}, true
}

func drawOrZero(draw Draw) float64 {
	if draw == nil {
		return 0
	}
	return draw()
}
