package api

import (
	"net/http"
	"strings"

	"github.com/rendis/flowcost/internal/importer"
	"github.com/rendis/flowcost/pkg/schema"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.deps.Version,
	})
}

// handleEstimate estimates one workflow. An optional ?query= jq expression
// projects the result.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query != "" {
		if err := s.deps.Service.CheckQuery(query); err != nil {
			writeError(w, err)
			return
		}
	}

	var req schema.EstimateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	est, err := s.deps.Service.Estimate(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	if query == "" {
		writeJSON(w, http.StatusOK, est)
		return
	}

	out, err := s.deps.Service.Query(ctx, est, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEstimateBatch(w http.ResponseWriter, r *http.Request) {
	var batch schema.BatchEstimateRequest
	if err := decodeBody(w, r, &batch); err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.deps.Service.EstimateBatch(r.Context(), &batch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDiagram renders the estimated workflow; ?format= is one of
// mermaid (default), ascii, svg or png.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	var req schema.EstimateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.deps.Service.RenderDiagram(r.Context(), &req, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", d.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(d.Body)
}

func (s *Server) handleImportSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": importer.Sources()})
}

// handleImport converts a third-party export into an estimate request.
// The raw body is passed through so malformed JSON can still be repaired.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	wf, err := s.deps.Service.Import(r.Context(), r.PathValue("source"), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// --- Pricing catalog ---

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(s.deps.Service.Pricing().ProviderSummaries()))
}

func (s *Server) handleProvidersDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(s.deps.Service.Pricing().Providers()))
}

// handleModels lists models, optionally filtered by ?provider= and ?family=.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, emptyIfNil(s.deps.Service.Pricing().Models(q.Get("provider"), q.Get("family"))))
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Service.Model(r.PathValue("provider"), r.PathValue("model"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	p := s.deps.Service.Pricing()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":   p.Version(),
		"providers": emptyIfNil(p.Providers()),
	})
}

// --- Tool catalog ---

func (s *Server) handleToolCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(s.deps.Service.Tools().CategorySummaries()))
}

func (s *Server) handleToolCategoriesDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(s.deps.Service.Tools().Categories()))
}

// handleTools lists tools, optionally filtered by ?category=.
func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(s.deps.Service.Tools().Tools(r.URL.Query().Get("category"))))
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Service.Tool(r.PathValue("tool_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
