// Package httpadapter exposes the ingestion and search pipeline over a
// small JSON API.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/domain"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/core/ports"
	"github.com/cwijayasundara/biz-to-bricks-v3/internal/observability/metrics"
)

const maxUploadBytes = 64 << 20

type Router struct {
	ingestUC  ports.DocumentIngestor
	searchUC  ports.SearchService
	contentUC ports.ContentService
	removerUC ports.DocumentRemover
	repo      ports.DocumentReader

	serviceName string
	metrics     *metrics.HTTPServerMetrics
	rateRPS     float64
	rateBurst   int
	maxInFlight int
	queueWait   time.Duration
}

type RouterOptions struct {
	ServiceName    string
	Metrics        *metrics.HTTPServerMetrics
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	QueueWait      time.Duration
}

func NewRouter(
	ingestUC ports.DocumentIngestor,
	searchUC ports.SearchService,
	contentUC ports.ContentService,
	removerUC ports.DocumentRemover,
	repo ports.DocumentReader,
	options RouterOptions,
) *Router {
	serviceName := options.ServiceName
	if serviceName == "" {
		serviceName = "api"
	}
	return &Router{
		ingestUC:    ingestUC,
		searchUC:    searchUC,
		contentUC:   contentUC,
		removerUC:   removerUC,
		repo:        repo,
		serviceName: serviceName,
		metrics:     options.Metrics,
		rateRPS:     options.RateLimitRPS,
		rateBurst:   options.RateLimitBurst,
		maxInFlight: options.MaxInFlight,
		queueWait:   options.QueueWait,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/documents/", rt.documentSubresource)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/tabular/query", rt.tabularQuery)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.serviceName, handler)
	}
	if rt.maxInFlight > 0 {
		wait := rt.queueWait
		if wait <= 0 {
			wait = 5 * time.Second
		}
		handler = backpressureMiddleware(handler, rt.maxInFlight, wait)
	}
	if rt.rateRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateRPS, rt.rateBurst)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingestUC.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.repo.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// documentSubresource handles /v1/documents/{name} and the action
// routes beneath it: content, ingest, summary, questions, faq.
func (rt *Router) documentSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	name, action, _ := strings.Cut(rest, "/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "document name is required")
		return
	}

	switch action {
	case "":
		rt.getDocument(w, r, name)
	case "content":
		rt.saveContent(w, r, name)
	case "ingest":
		rt.requestIngest(w, r, name)
	case "summary", "questions", "faq":
		rt.generateContent(w, r, name, action)
	default:
		writeError(w, http.StatusNotFound, "unknown document action")
	}
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, name string) {
	switch r.Method {
	case http.MethodGet:
		doc, err := rt.repo.GetByName(r.Context(), name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := rt.removerUC.Delete(r.Context(), name); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"name": name, "status": "deleted"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) saveContent(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Content string `json:"content"`
		Ingest  bool   `json:"ingest"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := rt.ingestUC.SaveContent(r.Context(), name, req.Content); err != nil {
		writeDomainError(w, err)
		return
	}

	status := "saved"
	if req.Ingest {
		if err := rt.ingestUC.RequestIngest(r.Context(), name); err != nil {
			writeDomainError(w, err)
			return
		}
		status = "saved_and_queued"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status, "document": name})
}

func (rt *Router) requestIngest(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := rt.ingestUC.RequestIngest(r.Context(), name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "document": name})
}

func (rt *Router) generateContent(w http.ResponseWriter, r *http.Request, name, kind string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var text string
	var err error
	switch kind {
	case "summary":
		text, err = rt.contentUC.Summarize(r.Context(), name)
	case "questions":
		text, err = rt.contentUC.GenerateQuestions(r.Context(), name)
	case "faq":
		text, err = rt.contentUC.GenerateFAQ(r.Context(), name)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"document": name, kind: text})
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Query          string `json:"query"`
		SourceDocument string `json:"source_document"`
		Debug          bool   `json:"debug"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	start := time.Now()
	result := rt.searchUC.Search(r.Context(), req.Query, req.SourceDocument, req.Debug)
	if rt.metrics != nil {
		rt.metrics.RecordSearch(
			rt.serviceName,
			string(result.Strategy),
			string(result.Source),
			time.Since(start),
			result.Fallback,
			result.Source == domain.SourceNone,
		)
		rt.metrics.RecordRetrievedChunks(rt.serviceName, len(result.Chunks))
	}

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) tabularQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Filename string `json:"filename"`
		Query    string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	// Without a filename the query fans out to every tabular file.
	if strings.TrimSpace(req.Filename) == "" {
		results, err := rt.searchUC.QueryTabularAll(r.Context(), req.Query)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
		return
	}

	result, err := rt.searchUC.QueryTabular(r.Context(), req.Filename, req.Query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, mapErrorToHTTPStatus(err), err.Error())
}
