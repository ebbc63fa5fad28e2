package docrag

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

const statsSampleLimit = 100

// HTTPServer exposes the query service over plain HTTP: POST /query,
// GET /health and GET /stats. Each request is independent; the service
// context is read-only after startup.
type HTTPServer struct {
	svc *Service
}

func NewHTTPServer(svc *Service) *HTTPServer {
	return &HTTPServer{svc: svc}
}

func (h *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /query", h.handleQuery)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /stats", h.handleStats)
	return mux
}

func (h *HTTPServer) ListenAndServe() error {
	addr := h.svc.Config().ListenAddr
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, h.Handler())
}

type queryPayload struct {
	Question      string `json:"question"`
	TopK          int    `json:"top_k"`
	Language      string `json:"language"`
	DocType       string `json:"doc_type"`
	IncludePrompt *bool  `json:"include_prompt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	var payload queryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if payload.Question == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
		return
	}
	topK := payload.TopK
	if topK == 0 {
		topK = h.svc.Config().QueryTopK
	}
	if topK < 1 || topK > 20 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "top_k must be between 1 and 20"})
		return
	}
	includePrompt := true
	if payload.IncludePrompt != nil {
		includePrompt = *payload.IncludePrompt
	}

	resp, err := h.svc.Query(r.Context(), QueryRequest{
		Question:      payload.Question,
		TopK:          topK,
		Language:      payload.Language,
		DocType:       payload.DocType,
		IncludePrompt: includePrompt,
	})
	if err != nil {
		// A store failure means the request could not be answered at all.
		log.Printf("query failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "query failed: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status     string `json:"status"`
	Documents  int    `json:"documents"`
	Model      string `json:"model"`
	Collection string `json:"collection"`
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.DocumentCount(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Documents:  count,
		Model:      h.svc.Config().EmbeddingModel,
		Collection: h.svc.Config().Collection,
	})
}

func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	sample, err := h.svc.SampleStats(r.Context(), statsSampleLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
		log.Printf("write response: %v", err)
	}
}
