package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"legalqa/internal/blob"
	"legalqa/internal/config"
	"legalqa/internal/legal"
	"legalqa/internal/providers"
	"legalqa/internal/util"
	"legalqa/internal/workflows"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

const snippetRunes = 420

// WorkflowStarter is the part of the Temporal client used to start indexing.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options tclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (tclient.WorkflowRun, error)
}

type Deps struct {
	Library  *legal.Library
	Passages legal.PassageSearcher
	Store    blob.Storage
	Signer   *blob.Signer
	Temporal WorkflowStarter
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

type Server struct {
	cfg      config.Config
	lib      *legal.Library
	passages legal.PassageSearcher
	store    blob.Storage
	signer   *blob.Signer
	temporal WorkflowStarter
	gatherer prometheus.Gatherer
	log      zerolog.Logger
}

func NewServer(cfg config.Config, deps Deps) *Server {
	return &Server{
		cfg:      cfg,
		lib:      deps.Library,
		passages: deps.Passages,
		store:    deps.Store,
		signer:   deps.Signer,
		temporal: deps.Temporal,
		gatherer: deps.Gatherer,
		log:      deps.Logger.With().Str("component", "api").Logger(),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/acts", s.handleActs)
	mux.HandleFunc("/search/titles", s.handleSearchTitles)
	mux.HandleFunc("/search/sections", s.handleSearchSections)
	mux.HandleFunc("/search/passages", s.handleSearchPassages)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/retriever-test", s.handleRetrieverTest)
	mux.HandleFunc("/index", s.handleIndex)
	mux.HandleFunc("/files/", s.handleFiles)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "collection_id": s.lib.ID()})
}

type actSummary struct {
	ID           string             `json:"id"`
	No           string             `json:"no"`
	Year         string             `json:"year"`
	Title        string             `json:"title"`
	Jurisdiction legal.Jurisdiction `json:"jurisdiction"`
	DatesKnown   bool               `json:"dates_known"`
	DocumentIDs  []string           `json:"document_ids"`
}

func (s *Server) handleActs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	catalog, err := s.lib.ActCatalog(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]actSummary, 0, catalog.Len())
	for _, act := range catalog.Acts() {
		ids := make([]string, 0, len(act.Documents))
		for _, d := range act.Documents {
			ids = append(ids, d.ID)
		}
		out = append(out, actSummary{
			ID:           act.ID,
			No:           act.No,
			Year:         act.Year,
			Title:        act.Title,
			Jurisdiction: act.Jurisdiction,
			DatesKnown:   act.DatesKnown(),
			DocumentIDs:  ids,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"acts": out})
}

type queryRequest struct {
	Query   string `json:"query"`
	EmailID string `json:"email_id"`
	History bool   `json:"history"`
	K       int    `json:"k"`
}

// readQuery accepts the query from the query string on GET and from a JSON
// body otherwise.
func readQuery(r *http.Request) (queryRequest, error) {
	var req queryRequest
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.EmailID = q.Get("email_id")
		req.History, _ = strconv.ParseBool(q.Get("history"))
		req.K, _ = strconv.Atoi(q.Get("k"))
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid json: %w", err)
		}
	default:
		return req, errMethodNotAllowed
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, fmt.Errorf("query is required")
	}
	return req, nil
}

var errMethodNotAllowed = errors.New("method not allowed")

func (s *Server) readQueryOrFail(w http.ResponseWriter, r *http.Request) (queryRequest, bool) {
	req, err := readQuery(r)
	if err != nil {
		if errors.Is(err, errMethodNotAllowed) {
			writeErr(w, http.StatusMethodNotAllowed, err)
		} else {
			writeErr(w, http.StatusBadRequest, err)
		}
		return req, false
	}
	return req, true
}

func (s *Server) handleSearchTitles(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readQueryOrFail(w, r)
	if !ok {
		return
	}
	docs, err := s.lib.SearchTitles(r.Context(), req.Query)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleSearchSections(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readQueryOrFail(w, r)
	if !ok {
		return
	}
	sections, err := s.lib.SearchSections(r.Context(), req.Query)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

type passageView struct {
	FileName string  `json:"file_name"`
	Snippet  string  `json:"snippet"`
	TextURL  string  `json:"text_url,omitempty"`
	Score    float64 `json:"score"`
}

func (s *Server) handleSearchPassages(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readQueryOrFail(w, r)
	if !ok {
		return
	}
	if s.passages == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("passage search is not configured"))
		return
	}
	k := req.K
	if k <= 0 {
		k = s.cfg.RetrievalTopK
	}
	passages, err := s.passages.SearchPassages(r.Context(), req.Query, k)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]passageView, 0, len(passages))
	for _, p := range passages {
		out = append(out, passageView{
			FileName: p.FileName,
			Snippet:  util.PassageSnippet(p.Text, req.Query, snippetRunes),
			TextURL:  p.TextURL,
			Score:    p.Score,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"passages": out})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	req, ok := s.readQueryOrFail(w, r)
	if !ok {
		return
	}
	if req.History && strings.TrimSpace(req.EmailID) == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("email_id is required with history"))
		return
	}
	answer, err := s.lib.GeneralSearch(r.Context(), req.Query, req.EmailID, req.History)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"answer": answer})
}

func (s *Server) handleRetrieverTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	req, ok := s.readQueryOrFail(w, r)
	if !ok {
		return
	}
	answer, err := s.lib.RetrieverTest(r.Context(), req.Query)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"answer": answer})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	if s.temporal == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("indexing is not configured"))
		return
	}
	collectionID := s.lib.ID()
	wfID := "index-" + collectionID
	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                                       wfID,
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.IndexCollectionWorkflow, workflows.IndexCollectionInput{
		CollectionID:          collectionID,
		MaxConcurrentChildren: s.cfg.IndexMaxChildren,
		EmbedProviders:        len(providers.ParseProviderList(s.cfg.EmbedProviders)),
		CooldownSeconds:       s.cfg.ProviderCooldownSecs,
		ChunkSize:             s.cfg.ChunkSize,
		ChunkOverlap:          s.cfg.ChunkOverlap,
		EmbedVersion:          s.cfg.EmbedVersion,
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already started") {
			writeErr(w, http.StatusConflict, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": we.GetID(), "run_id": we.GetRunID()})
}

// handleFiles serves blobs behind URLs issued by blob.Signer.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeErr(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	if s.signer == nil || s.store == nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("file serving is not configured"))
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/files/")
	q := r.URL.Query()
	if err := s.signer.Verify(key, q.Get("expires"), q.Get("sig")); err != nil {
		writeErr(w, http.StatusForbidden, err)
		return
	}
	data, err := s.store.ReadFile(r.Context(), key)
	if err != nil {
		s.fail(w, err)
		return
	}
	ctype := mime.TypeByExtension(path.Ext(key))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(data)
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		s.log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeErr(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, legal.ErrIncorrectInput), errors.Is(err, util.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, legal.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "LQ-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status == http.StatusServiceUnavailable:
		return apiError{
			Code:    "LQ-API-5030",
			Message: "Language model or search backend is unavailable. Retry shortly.",
		}
	case status >= 500:
		switch {
		case errors.Is(err, legal.ErrSectionNotFound):
			return apiError{
				Code:    "LQ-DATA-5004",
				Message: "Cannot find section and page number in the act's section index.",
			}
		case errors.Is(err, legal.ErrInvalidActMetadata):
			return apiError{
				Code:    "LQ-DATA-5003",
				Message: "Act metadata in the collection is invalid.",
			}
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "LQ-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "LQ-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "LQ-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "LQ-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusForbidden:
		code = "LQ-API-4003"
		msg = "File link is invalid or has expired."
	case status == http.StatusNotFound:
		code = "LQ-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "LQ-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "LQ-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case errors.Is(err, legal.ErrIncorrectSectionNumber):
			msg = "Incorrect section number format."
		case errors.Is(err, legal.ErrIncorrectQueryFormat):
			msg = "Incorrect input query format. Mention a section, e.g. \"section 12 of motor vehicles act\"."
		case strings.Contains(raw, "query is required"):
			msg = "A query is required."
		case strings.Contains(raw, "email_id is required"):
			msg = "An email id is required to use conversation history."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
