package handlers

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"fraud-console/internal/errors"
	"fraud-console/internal/models"
	"fraud-console/internal/observability"
	"fraud-console/internal/services"
	"fraud-console/internal/ui/templates"
)

// SSEHandlers run one controller action per request and patch the affected
// fragments plus the toast area back into the page.
type SSEHandlers struct {
	logger        *slog.Logger
	maxUploadSize int64
}

func NewSSEHandlers(logger *slog.Logger, maxUploadSize int64) *SSEHandlers {
	return &SSEHandlers{
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

func (h *SSEHandlers) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	sess, ok := services.SessionFrom(r.Context())
	if !ok {
		errors.WriteError(w, r, h.logger, errors.Internal("no session attached to request"))
		return nil, false
	}
	return sess, true
}

func (h *SSEHandlers) patch(sse *datastar.ServerSentEventGenerator, r *http.Request, components ...templ.Component) {
	for _, c := range components {
		html, err := templates.Render(r.Context(), c)
		if err != nil {
			h.logger.Error("render fragment", "error", err, "request_id", observability.GetRequestID(r.Context()))
			continue
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.Warn("patch elements", "error", err, "request_id", observability.GetRequestID(r.Context()))
			return
		}
	}
}

// toastOnly answers a request that failed before reaching a controller.
func (h *SSEHandlers) toastOnly(w http.ResponseWriter, r *http.Request, message string) {
	sse := datastar.NewSSE(w, r)
	t := models.NewToast(models.ToastError, message)
	h.patch(sse, r, templates.Toast(&t))
}

func (h *SSEHandlers) HandleDashboardRefresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	sse := datastar.NewSSE(w, r)
	state := sess.Dashboard.Refresh(r.Context())
	h.patch(sse, r, templates.DashboardPanel(state))
}

func (h *SSEHandlers) HandleScore(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var signals scoreSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read score signals", "error", err)
		h.toastOnly(w, r, "Invalid transaction")
		return
	}

	sse := datastar.NewSSE(w, r)
	state := sess.Scorer.Score(r.Context(), signals.Tx.transaction())
	h.patch(sse, r, templates.ScoreResult(state), templates.Toast(state.Toast))
}

func (h *SSEHandlers) HandleScoreRetry(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	sse := datastar.NewSSE(w, r)
	state := sess.Scorer.Retry(r.Context())
	h.patch(sse, r, templates.ScoreResult(state), templates.Toast(state.Toast))
}

// HandleRandomTransaction fills the form with a generated transaction
// without scoring it.
func (h *SSEHandlers) HandleRandomTransaction(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	tx := sess.Generator.Random()
	sess.Scorer.Fill(tx)

	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(map[string]any{"tx": tx}); err != nil {
		h.logger.Warn("patch transaction signals", "error", err)
	}
}

func (h *SSEHandlers) HandleScoreReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	sse := datastar.NewSSE(w, r)
	state := sess.Scorer.Reset()
	h.patch(sse, r, templates.ScoreResult(state), templates.Toast(nil))
}

func (h *SSEHandlers) HandleBatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	sse := datastar.NewSSE(w, r)
	state := sess.Batch.Run(r.Context())
	h.patch(sse, r, templates.BatchResult(state), templates.Toast(state.Toast))
}

func (h *SSEHandlers) HandleCreateABTest(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var signals abTestSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read A/B test signals", "error", err)
		h.toastOnly(w, r, "Invalid A/B test")
		return
	}

	req, err := signals.request()
	if err != nil {
		h.toastOnly(w, r, errors.MessageOr(err, "Invalid A/B test"))
		return
	}

	sse := datastar.NewSSE(w, r)
	state := sess.Experiments.Create(r.Context(), req)
	h.patch(sse, r, templates.ExperimentList(state.Tests), templates.Toast(state.Toast))
}

func (h *SSEHandlers) HandleABTestResults(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	sse := datastar.NewSSE(w, r)
	state := sess.Experiments.ViewResults(r.Context(), r.PathValue("id"))
	h.patch(sse, r, templates.ABResults(state), templates.Toast(state.Toast))
}

func (h *SSEHandlers) HandleProcessPayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var signals paymentSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read payment signals", "error", err)
		h.toastOnly(w, r, "Invalid payment")
		return
	}

	req := models.PaymentRequest{
		Transaction: signals.Pay.transaction(),
		MerchantID:  signals.Pay.MerchantID,
	}

	sse := datastar.NewSSE(w, r)
	state := sess.Experiments.ProcessPayment(r.Context(), req)
	h.patch(sse, r, templates.PaymentResult(state), templates.Toast(state.Toast))
}

func (h *SSEHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.logger.Warn("parse upload form", "error", err)
		h.toastOnly(w, r, "Please select a CSV file")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("dataFile")
	if err != nil {
		h.toastOnly(w, r, "Please select a CSV file")
		return
	}
	defer file.Close()

	state := sess.Ingestion.Upload(r.Context(), header.Filename, file)

	sse := datastar.NewSSE(w, r)
	h.patch(sse, r, templates.IngestUpload(state), templates.Toast(state.Toast))
}

func (h *SSEHandlers) HandleRunETL(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	sse := datastar.NewSSE(w, r)
	state := sess.Ingestion.RunETL(r.Context())
	h.patch(sse, r, templates.IngestETL(state), templates.Toast(state.Toast))
}

func (h *SSEHandlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var signals webhookSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read webhook signals", "error", err)
		h.toastOnly(w, r, "Please enter provider ID")
		return
	}

	sse := datastar.NewSSE(w, r)
	state := sess.Ingestion.TestWebhook(r.Context(), signals.Webhook.ProviderID)
	h.patch(sse, r, templates.IngestWebhook(state), templates.Toast(state.Toast))
}

func (h *SSEHandlers) HandlePoll(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	sse := datastar.NewSSE(w, r)
	state := sess.Ingestion.Poll(r.Context(), r.PathValue("provider"))
	h.patch(sse, r, templates.IngestPoll(state), templates.Toast(state.Toast))
}
