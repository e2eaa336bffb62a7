package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/notatio-labs/curricc/internal/loader"
	"github.com/notatio-labs/curricc/pkg/compile"
	"github.com/notatio-labs/curricc/pkg/core"
	"github.com/notatio-labs/curricc/pkg/ports"
)

// validateRequest is a proposed connection plus the editor's current
// edge set.
type validateRequest struct {
	Source     loader.NodeRecord   `json:"source"`
	Target     loader.NodeRecord   `json:"target"`
	SourcePort core.Port           `json:"sourcePort"`
	TargetPort core.Port           `json:"targetPort"`
	Edges      []loader.EdgeRecord `json:"edges"`
}

type validateResponse struct {
	Allowed bool          `json:"allowed"`
	Reason  string        `json:"reason,omitempty"`
	Kind    core.EdgeKind `json:"kind,omitempty"`
	// EdgeID is the id the editor should assign on acceptance
	EdgeID string `json:"edgeId,omitempty"`
}

type compileResponse struct {
	Success  bool                       `json:"success"`
	RunID    string                     `json:"runId"`
	Errors   []compile.CompilationError `json:"errors,omitempty"`
	Export   *compile.Export            `json:"export,omitempty"`
	Checksum string                     `json:"checksum,omitempty"`
	Warnings []string                   `json:"warnings,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleValidateConnection(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	source, err := loader.DecodeNode(req.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	target, err := loader.DecodeNode(req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	edges := make([]core.Edge, 0, len(req.Edges))
	for _, rec := range req.Edges {
		e, err := loader.DecodeEdge(rec)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		edges = append(edges, e)
	}

	d := ports.ValidateConnection(&source, &target, req.SourcePort, req.TargetPort, edges)
	resp := validateResponse{Allowed: d.Allowed, Reason: d.Reason}
	if d.Allowed {
		resp.Kind = d.Kind
		resp.EdgeID = core.EdgeID(source.ID, target.ID, d.Kind)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	g, err := loader.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.engine.CompileGraph(g)
	if err != nil {
		s.logger.Error("compile request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "compile failed")
		return
	}

	writeJSON(w, http.StatusOK, compileResponse{
		Success:  res.Succeeded(),
		RunID:    res.RunID,
		Errors:   res.Errors,
		Export:   res.Export,
		Checksum: res.Checksum,
		Warnings: res.Warnings,
	})
}

func (s *Server) handleGraphStats(w http.ResponseWriter, _ *http.Request) {
	g, err := s.engine.LoadGraph()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, g.Stats())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := s.engine.Store().ListRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
