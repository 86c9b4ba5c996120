package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tev2-toolkit/mrgen/internal/utils"
	"github.com/tev2-toolkit/mrgen/pkg/generator"
	"github.com/tev2-toolkit/mrgen/pkg/model"
	"github.com/tev2-toolkit/mrgen/pkg/storage"
)

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	page, err := WebFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleGenerate builds an MRG from the posted form and returns it as YAML.
// Nothing is written to disk.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req := generator.Request{
		ScopeDir:    strings.TrimSpace(r.PostForm.Get("scopedir")),
		SAFFilename: strings.TrimSpace(r.PostForm.Get("safFilename")),
		VersionTag:  strings.TrimSpace(r.PostForm.Get("versionTag")),
		DryRun:      true,
	}
	if req.ScopeDir == "" || req.VersionTag == "" {
		http.Error(w, "scopedir and versionTag are required", http.StatusBadRequest)
		return
	}

	started := time.Now()
	res, err := s.Generator.Generate(r.Context(), req)
	if err != nil {
		utils.Log.Errorf("Generating MRG for %s (%s) failed: %v", req.ScopeDir, req.VersionTag, err)
		http.Error(w, fmt.Sprintf("Unable to generate MRG. Error was %v", err), http.StatusInternalServerError)
		return
	}
	out, err := model.MarshalMRG(res.MRG)
	if err != nil {
		http.Error(w, fmt.Sprintf("Unable to generate MRG. Error was %v", err), http.StatusInternalServerError)
		return
	}

	if s.DB != nil {
		identity := s.Identity
		if identity == "" {
			identity = model.DefaultIdentity
		}
		run := storage.NewRun(req.ScopeDir, res.MRG, identity, res.Warnings, "", true, started)
		if _, err := s.DB.RecordRun(r.Context(), run); err != nil {
			utils.Log.Warnf("Could not record run: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("X-Mrgen-Warnings", strconv.Itoa(len(res.Warnings)))
	w.Write(out)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	q := r.URL.Query()
	opts := storage.ListOptions{
		ScopeTag:   q.Get("scopetag"),
		VersionTag: q.Get("vsntag"),
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		opts.Limit = n
	}

	runs, err := s.DB.ListRuns(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

type runDetail struct {
	storage.Run
	Entries  []storage.RunEntry `json:"entries"`
	Warnings []string           `json:"warnings"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	run, err := s.DB.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	detail := runDetail{Run: run}
	if detail.Entries, err = s.DB.ListRunEntries(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if detail.Warnings, err = s.DB.ListRunWarnings(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, detail)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.DB == nil {
		http.Error(w, "run history is not enabled", http.StatusNotFound)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
