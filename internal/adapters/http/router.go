package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/ports"
	"github.com/yctsai/akasha/internal/core/retrieval"
	"github.com/yctsai/akasha/internal/observability/metrics"
)

type Router struct {
	ingestor  ports.DocumentIngestor
	answerer  ports.QuestionAnswerer
	moderator ports.Moderator
	reader    ports.DocumentReader
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
	service   string
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	answerer ports.QuestionAnswerer,
	moderator ports.Moderator,
	reader ports.DocumentReader,
	serverMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
	service string,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		ingestor:  ingestor,
		answerer:  answerer,
		moderator: moderator,
		reader:    reader,
		metrics:   serverMetrics,
		logger:    logger,
		service:   service,
	}
}

func (rt *Router) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/moderate", rt.moderate)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}

	handler := validator.Middleware(mux)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler, nil
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type askRequest struct {
	Question    string  `json:"question"`
	Strategy    string  `json:"strategy"`
	TopK        int     `json:"top_k"`
	Threshold   float64 `json:"threshold"`
	TokenBudget int     `json:"token_budget"`
	Language    string  `json:"language"`
	MMRLambda   float64 `json:"mmr_lambda"`
	Compress    bool    `json:"compress"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	opts := retrieval.Options{
		TopK:        req.TopK,
		Threshold:   req.Threshold,
		Language:    domain.Language(req.Language),
		TokenBudget: req.TokenBudget,
		MMRLambda:   req.MMRLambda,
	}
	if req.Strategy != "" {
		strategy, err := domain.ParseStrategy(req.Strategy)
		if err != nil {
			rt.writeMappedError(w, r, err)
			return
		}
		opts.Strategy = strategy
	}

	start := time.Now()
	answer, err := rt.answerer.Ask(r.Context(), req.Question, opts, req.Compress)
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordAskObservation(rt.service, "/v1/ask", len(answer.Sources), answer.Tokens, time.Since(start))
		rt.metrics.RecordStrategyRequest(rt.service, "/v1/ask", string(opts.Strategy))
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) moderate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	verdict, err := rt.moderator.DetectExploitation(r.Context(), req.Text)
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"verdict": verdict})
}

func (rt *Router) writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
