package templates

import (
	"github.com/a-h/templ"

	"fraud-console/internal/models"
	"fraud-console/internal/services"
)

type dashboardView struct {
	State      services.DashboardState
	Badge      services.StatusBadge
	Warning    string
	HasWarning bool
}

func newDashboardView(state services.DashboardState) dashboardView {
	warning, ok := state.HealthWarning()
	return dashboardView{
		State:      state,
		Badge:      state.SystemStatus(),
		Warning:    warning,
		HasWarning: ok,
	}
}

// DashboardPanel renders the health badge, warning banner and metric cards.
func DashboardPanel(state services.DashboardState) templ.Component {
	return view("dashboard", newDashboardView(state))
}

func ScoreResult(state services.ScorerState) templ.Component {
	return view("score-result", state)
}

func BatchResult(state services.BatchState) templ.Component {
	return view("batch-result", state)
}

func ExperimentList(tests []models.ABTest) templ.Component {
	return view("experiment-list", tests)
}

func ABResults(state services.ExperimentsState) templ.Component {
	return view("ab-results", state)
}

func PaymentResult(state services.ExperimentsState) templ.Component {
	return view("payment-result", state)
}

func IngestUpload(state services.IngestionState) templ.Component {
	return view("ingest-upload", state)
}

func IngestETL(state services.IngestionState) templ.Component {
	return view("ingest-etl", state)
}

func IngestWebhook(state services.IngestionState) templ.Component {
	return view("ingest-webhook", state)
}

func IngestPoll(state services.IngestionState) templ.Component {
	return view("ingest-poll", state)
}

const fragmentsHTML = `
{{define "toast"}}<div id="toast" class="toast-area">{{if .}}<div class="toast toast-{{.Level}}" role="status">{{.Message}}</div>{{end}}</div>{{end}}

{{define "dashboard"}}<section id="dashboard">
<header class="section-header">
  <h2>System Overview</h2>
  <span class="badge badge-{{.Badge.Color}}">{{.Badge.Label}}</span>
  <button data-on:click="@get('/sse/dashboard/refresh')" data-indicator="refreshing" data-attr:disabled="$refreshing">Refresh</button>
  <small>Last refresh: {{clock .State.LastRefresh}}</small>
</header>
{{if .HasWarning}}<div class="alert alert-warning">{{.Warning}}</div>{{end}}
{{with .State.Stats}}
<div class="cards">
  <div class="card"><h3>Total Inferences</h3><p class="metric">{{count .TotalInferences}}</p></div>
  <div class="card"><h3>Average Latency</h3><p class="metric">{{latency .AvgLatencyMS}}</p></div>
  <div class="card"><h3>Cache Hit Rate</h3><p class="metric">{{percent .CacheHitRate 1}}</p>
    <progress max="1" value="{{.CacheHitRate}}"></progress></div>
  <div class="card"><h3>Sub-millisecond Rate</h3><p class="metric">{{percent .SubMillisecondRate 1}}</p>
    <progress max="1" value="{{.SubMillisecondRate}}"></progress></div>
</div>
<table class="modern-table latency-table">
<thead><tr><th>Min</th><th>P95</th><th>P99</th><th>Max</th></tr></thead>
<tbody><tr><td>{{latencyPrecise .MinLatencyMS}}</td><td>{{latencyPrecise .P95LatencyMS}}</td><td>{{latencyPrecise .P99LatencyMS}}</td><td>{{latencyPrecise .MaxLatencyMS}}</td></tr></tbody>
</table>
{{with .ModelPerformance}}
<div class="card">
  <h3>Model Performance</h3>
  <table class="modern-table">
  <tbody>
  <tr><td>Accuracy</td><td>{{percent .Accuracy 1}}</td><td><progress max="1" value="{{.Accuracy}}"></progress></td></tr>
  <tr><td>Precision</td><td>{{percent .Precision 1}}</td><td><progress max="1" value="{{.Precision}}"></progress></td></tr>
  <tr><td>Recall</td><td>{{percent .Recall 1}}</td><td><progress max="1" value="{{.Recall}}"></progress></td></tr>
  <tr><td>F1 Score</td><td>{{percent .F1Score 1}}</td><td><progress max="1" value="{{.F1Score}}"></progress></td></tr>
  </tbody>
  </table>
</div>
{{end}}
{{with .Last24Hours}}<div class="card"><h3>Last 24 Hours</h3><p>{{.Requests}} requests, average {{latency .AvgLatency}}</p></div>{{end}}
{{else}}<p class="muted">Inference statistics unavailable.</p>{{end}}
</section>{{end}}

{{define "score-result"}}<div id="score-result">
{{if eq .Phase "loading"}}<p class="muted">Scoring…</p>
{{else if eq .Phase "failed"}}
<div class="alert alert-error">{{.Error}}</div>
<button data-on:click="@post('/sse/score/retry')">Retry</button>
{{else if .Result}}{{with .Result}}
<div class="card result {{if .Flagged}}result-fraud{{else}}result-legit{{end}}">
  <h3>{{if .Flagged}}Fraudulent{{else}}Legitimate{{end}}</h3>
  <p class="metric">{{score .FraudScore}}</p>
  <progress max="1" value="{{.FraudScore}}"></progress>
  <dl>
    <dt>Transaction</dt><dd>{{.TransactionID}}</dd>
    <dt>Model</dt><dd>{{.ModelVersion}}</dd>
    {{if .HasLatency}}<dt>Latency</dt><dd>{{latencyPrecise .LatencyMS}}</dd>{{end}}
    <dt>Risk factors</dt><dd>{{riskFactors .RiskFactors}}</dd>
  </dl>
  {{if .Synthetic}}<p class="muted">The service returned no score; this value is a placeholder.</p>{{end}}
</div>
{{end}}
<button data-on:click="@post('/sse/score/reset')">Test another transaction</button>
{{end}}
</div>{{end}}

{{define "batch-result"}}<div id="batch-result">
{{if eq .Phase "loading"}}<p class="muted">Running batch…</p>
{{else if eq .Phase "failed"}}
<div class="alert alert-error">{{.Error}}</div>
<button data-on:click="@post('/sse/batch')">Retry</button>
{{else if .Result}}
<table class="modern-table">
<thead><tr><th>Transaction</th><th>Score</th><th>Verdict</th><th>Risk factors</th></tr></thead>
<tbody>
{{range .Result.Results}}<tr>
<td>{{.TransactionID}}</td>
<td>{{score .FraudScore}}</td>
<td>{{if .Flagged}}<span class="badge badge-error">Fraud</span>{{else}}<span class="badge badge-success">Legit</span>{{end}}</td>
<td>{{riskFactors .RiskFactors}}</td>
</tr>{{end}}
</tbody>
</table>
{{if .Result.HasProcessingTime}}<p class="muted">Processed in {{latencyPrecise .Result.ProcessingTimeMS}}</p>{{end}}
{{end}}
</div>{{end}}

{{define "experiment-list"}}<div id="experiment-list">
{{if .}}
<table class="modern-table">
<thead><tr><th>Name</th><th>Control</th><th>Treatment</th><th>Holdout</th><th>Status</th><th>Created</th><th></th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.TestName}}</td>
<td>{{.ControlModelVersion}}</td>
<td>{{.TreatmentModelVersion}}</td>
<td>{{.HoldoutPercentage}}%</td>
<td><span class="badge badge-{{.Status}}">{{title (print .Status)}}</span></td>
<td>{{stamp .CreatedAt}}</td>
<td><button data-on:click="@get('/sse/experiments/{{.TestID}}/results')">View results</button></td>
</tr>{{end}}
</tbody>
</table>
{{else}}<p class="muted">No A/B tests created in this session.</p>{{end}}
</div>{{end}}

{{define "ab-results"}}<div id="ab-results">
{{if eq .Results.Phase "loading"}}<p class="muted">Loading results…</p>
{{else if .Results.Value}}{{with .Results.Value}}
<h3>Results{{with $.Selected}}{{if .TestName}}: {{.TestName}}{{end}}{{end}}{{if .Mock}} <span class="badge badge-info">mock</span>{{end}}</h3>
<p>{{.TotalTransactions}} transactions.
{{if .StatisticalSignificance}}Statistically significant.{{else}}Not yet significant.{{end}}
{{if .Winner}}Winner: <strong>{{title .Winner}}</strong>{{end}}</p>
<table class="modern-table">
<thead><tr><th></th><th>Transactions</th><th>Accuracy</th><th>Precision</th><th>Recall</th><th>F1</th></tr></thead>
<tbody>
{{with .ControlGroup}}<tr><td>Control</td><td>{{.Transactions}}</td><td>{{percent .Accuracy 1}}</td><td>{{percent .Precision 1}}</td><td>{{percent .Recall 1}}</td><td>{{percent .F1Score 1}}</td></tr>{{end}}
{{with .TreatmentGroup}}<tr><td>Treatment</td><td>{{.Transactions}}</td><td>{{percent .Accuracy 1}}</td><td>{{percent .Precision 1}}</td><td>{{percent .Recall 1}}</td><td>{{percent .F1Score 1}}</td></tr>{{end}}
</tbody>
</table>
{{end}}{{end}}
</div>{{end}}

{{define "payment-result"}}<div id="payment-result">
{{if eq .Payment.Phase "loading"}}<p class="muted">Processing…</p>
{{else if eq .Payment.Phase "failed"}}<div class="alert alert-error">{{.Payment.Error}}</div>
{{else if .Payment.Value}}{{with .Payment.Value}}
<p>{{.TransactionID}} scored {{score .FraudScore}} by model {{.ModelVersion}}
{{if .Flagged}}<span class="badge badge-error">Fraud</span>{{else}}<span class="badge badge-success">Legit</span>{{end}}</p>
{{end}}{{end}}
</div>{{end}}

{{define "ingest-upload"}}<div id="ingest-upload">
{{if eq .Upload.Phase "loading"}}<p class="muted">Uploading…</p>
{{else if eq .Upload.Phase "failed"}}<div class="alert alert-error">{{.Upload.Error}}</div>
{{else if .Upload.Value}}{{with .Upload.Value}}
<dl>
  <dt>File</dt><dd>{{.Filename}}</dd>
  <dt>Records processed</dt><dd>{{.RecordsProcessed}}</dd>
  <dt>Processing time</dt><dd>{{latency .ProcessingTimeMS}}</dd>
</dl>
{{if .Errors}}<ul class="errors">{{range .Errors}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{end}}{{end}}
</div>{{end}}

{{define "ingest-etl"}}<div id="ingest-etl">
{{if eq .ETL.Phase "loading"}}<p class="muted">Starting pipeline…</p>
{{else if eq .ETL.Phase "failed"}}<div class="alert alert-error">{{.ETL.Error}}</div>
{{else if .ETL.Value}}{{with .ETL.Value}}
<dl>
  <dt>Job</dt><dd>{{.JobID}}</dd>
  <dt>Status</dt><dd>{{.Status}}</dd>
  <dt>Started</dt><dd>{{stamp .StartedAt}}</dd>
</dl>
{{end}}{{end}}
</div>{{end}}

{{define "ingest-webhook"}}<div id="ingest-webhook">
{{if eq .Webhook.Phase "loading"}}<p class="muted">Sending webhook…</p>
{{else if eq .Webhook.Phase "failed"}}<div class="alert alert-error">{{.Webhook.Error}}</div>
{{else if eq .Webhook.Phase "success"}}<p>Webhook accepted.{{with .Webhook.Value}} {{.}}{{end}}</p>{{end}}
</div>{{end}}

{{define "ingest-poll"}}<div id="ingest-poll">
{{if eq .Poll.Phase "loading"}}<p class="muted">Triggering poll…</p>
{{else if eq .Poll.Phase "failed"}}<div class="alert alert-error">{{.Poll.Error}}</div>
{{else if eq .Poll.Phase "success"}}<p>Polling triggered.{{with .Poll.Value}} {{.}}{{end}}</p>{{end}}
</div>{{end}}
`
