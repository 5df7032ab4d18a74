package templates

import (
	"context"
	"encoding/json"
	"io"

	"github.com/a-h/templ"

	"fraud-console/internal/models"
	"fraud-console/internal/services"
)

type navItem struct {
	Path  string
	Label string
}

var nav = []navItem{
	{"/", "Dashboard"},
	{"/scorer", "Transaction Scorer"},
	{"/experiments", "A/B Testing"},
	{"/ingestion", "Data Ingestion"},
}

// Layout wraps body in the shared page shell: head, navigation and the
// toast area that every SSE response may patch.
func Layout(title, active string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+templ.EscapeString(title)+` | Fraud Console</title>`+
			`<script type="module" src="`+datastarScript+`"></script>`+
			`<link rel="stylesheet" href="/static/console.css">`+
			`</head><body><nav class="sidebar"><h1>Fraud Console</h1><ul>`); err != nil {
			return err
		}
		for _, item := range nav {
			class := ""
			if item.Path == active {
				class = ` class="active"`
			}
			if _, err := io.WriteString(w, `<li><a href="`+templ.EscapeString(item.Path)+`"`+class+`>`+
				templ.EscapeString(item.Label)+`</a></li>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</ul></nav><main>`); err != nil {
			return err
		}
		if err := Toast(nil).Render(ctx, w); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func Dashboard(state services.DashboardState) templ.Component {
	return Layout("Dashboard", "/", view("page-dashboard", newDashboardView(state)))
}

type scorerView struct {
	State          services.ScorerState
	Batch          services.BatchState
	Signals        string
	Currencies     []string
	PaymentMethods []string
	Countries      []string
}

// Scorer renders the single and batch scoring page. The form is seeded from
// the retained input so a reload keeps what was typed.
func Scorer(state services.ScorerState, batch services.BatchState) templ.Component {
	return Layout("Transaction Scorer", "/scorer", view("page-scorer", scorerView{
		State:          state,
		Batch:          batch,
		Signals:        signals(map[string]any{"tx": state.Input}),
		Currencies:     services.Currencies,
		PaymentMethods: services.PaymentMethods,
		Countries:      services.Countries,
	}))
}

type experimentsView struct {
	State   services.ExperimentsState
	Signals string
	Min     int
	Max     int
}

func Experiments(state services.ExperimentsState) templ.Component {
	return Layout("A/B Testing", "/experiments", view("page-experiments", experimentsView{
		State: state,
		Signals: signals(map[string]any{
			"ab": models.CreateABTestRequest{HoldoutPercentage: 10},
			"pay": models.PaymentRequest{
				Transaction: models.Transaction{Currency: "USD", PaymentMethod: "credit_card", CountryCode: "US"},
			},
		}),
		Min: models.MinHoldoutPercentage,
		Max: models.MaxHoldoutPercentage,
	}))
}

type ingestionView struct {
	State     services.IngestionState
	Signals   string
	Providers []string
}

func Ingestion(state services.IngestionState) templ.Component {
	return Layout("Data Ingestion", "/ingestion", view("page-ingestion", ingestionView{
		State:     state,
		Signals:   signals(map[string]any{"webhook": map[string]string{"providerId": state.WebhookProvider}}),
		Providers: services.PollProviders,
	}))
}

func signals(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

const pagesHTML = `
{{define "page-dashboard"}}<div data-init="@get('/sse/dashboard/refresh')">{{template "dashboard" .}}</div>{{end}}

{{define "page-scorer"}}<section class="scorer" data-signals="{{.Signals}}">
<h2>Single Transaction</h2>
<form class="form-grid" data-on:submit="@post('/sse/score')">
  <label>Transaction ID <input data-bind="tx.transaction_id" required></label>
  <label>Amount <input type="number" min="0" step="0.01" data-bind="tx.amount" required></label>
  <label>Currency <select data-bind="tx.currency">{{range .Currencies}}<option>{{.}}</option>{{end}}</select></label>
  <label>Payment method <select data-bind="tx.payment_method">{{range .PaymentMethods}}<option value="{{.}}">{{label .}}</option>{{end}}</select></label>
  <label>Country <select data-bind="tx.country_code">{{range .Countries}}<option>{{.}}</option>{{end}}</select></label>
  <label>User ID <input data-bind="tx.user_id" required></label>
  <div class="actions">
    <button type="submit" data-indicator="scoring" data-attr:disabled="$scoring">Detect fraud</button>
    <button type="button" data-on:click="@post('/sse/score/random')">Random transaction</button>
  </div>
</form>
{{template "score-result" .State}}
</section>
<section class="batch">
<h2>Batch Scoring</h2>
<p class="muted">Scores three sample transactions in one request.</p>
<button data-on:click="@post('/sse/batch')" data-indicator="batching" data-attr:disabled="$batching">Run batch</button>
{{template "batch-result" .Batch}}
</section>{{end}}

{{define "page-experiments"}}<div data-signals="{{.Signals}}">
<section>
<h2>Create A/B Test</h2>
<form class="form-grid" data-on:submit="@post('/sse/experiments')">
  <label>Test name <input data-bind="ab.testName" required></label>
  <label>Control model <input data-bind="ab.controlModelVersion" placeholder="v1.0" required></label>
  <label>Treatment model <input data-bind="ab.treatmentModelVersion" placeholder="v1.1" required></label>
  <label>Holdout % <input type="number" min="{{.Min}}" max="{{.Max}}" data-bind="ab.holdoutPercentage"></label>
  <button type="submit" data-indicator="creating" data-attr:disabled="$creating">Create test</button>
</form>
</section>
<section>
<h2>Tests</h2>
{{template "experiment-list" .State.Tests}}
{{template "ab-results" .State}}
</section>
<section>
<h2>Process Payment</h2>
<form class="form-grid" data-on:submit="@post('/sse/experiments/payment')">
  <label>Transaction ID <input data-bind="pay.transaction_id" required></label>
  <label>Amount <input type="number" min="0" step="0.01" data-bind="pay.amount"></label>
  <label>Currency <input data-bind="pay.currency"></label>
  <label>Payment method <input data-bind="pay.payment_method"></label>
  <label>Country <input data-bind="pay.country_code"></label>
  <label>User ID <input data-bind="pay.user_id" required></label>
  <label>Merchant ID <input data-bind="pay.merchant_id"></label>
  <button type="submit">Process</button>
</form>
{{template "payment-result" .State}}
</section>
</div>{{end}}

{{define "page-ingestion"}}<div class="ingestion">
<section>
<h2>File Upload</h2>
<form data-on:submit="@post('/sse/ingest/upload', {contentType: 'form'})">
  <input type="file" name="dataFile" accept=".csv" required>
  <button type="submit">Upload CSV</button>
</form>
{{template "ingest-upload" .State}}
</section>
<section>
<h2>ETL Pipeline</h2>
<p class="muted">database → ml_features, including historical data.</p>
<button data-on:click="@post('/sse/ingest/etl')">Run ETL</button>
{{template "ingest-etl" .State}}
</section>
<section>
<h2>Webhook</h2>
<form class="inline" data-signals="{{.Signals}}" data-on:submit="@post('/sse/ingest/webhook')">
  <label>Provider ID <input data-bind="webhook.providerId" placeholder="Enter provider ID" required></label>
  <button type="submit">Send test webhook</button>
</form>
{{template "ingest-webhook" .State}}
</section>
<section>
<h2>Provider Polling</h2>
{{range .Providers}}<button data-on:click="@post('/sse/ingest/poll/{{.}}')">Poll {{.}}</button> {{end}}
{{template "ingest-poll" .State}}
</section>
</div>{{end}}
`
