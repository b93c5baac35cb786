package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mathfish/mathfish/internal/annotations"
	"github.com/mathfish/mathfish/internal/bus"
	apperrors "github.com/mathfish/mathfish/internal/pkg/errors"
	"github.com/mathfish/mathfish/internal/pkg/security"
	"github.com/mathfish/mathfish/internal/problems"
)

// sessionConfig is the GET /api/config response.
type sessionConfig struct {
	Annotator     string `json:"annotator"`
	TotalProblems int    `json:"total_problems"`
	SharedCount   int    `json:"shared_count"`
}

// problemView is the GET /api/problems element shape. Metadata and
// elements always encode as objects and num_problems is at least 1;
// the annotation page relies on those defaults.
type problemView struct {
	ID          string            `json:"id"`
	Text        string            `json:"text"`
	Source      string            `json:"source"`
	Metadata    map[string]any    `json:"metadata"`
	Elements    map[string]string `json:"elements"`
	NumProblems int               `json:"num_problems"`
	IsShared    bool              `json:"is_shared"`
}

// annotateRequest is the POST /api/annotate body. Standards accepts
// both bare code strings and {"id": ...} objects.
type annotateRequest struct {
	ProblemID string                    `json:"problem_id"`
	Standards []annotations.StandardRef `json:"standards"`
	Notes     string                    `json:"notes"`
	Skipped   bool                      `json:"skipped"`
}

// saveResult is the POST /api/annotate response: saved is the
// annotator's total after this save.
type saveResult struct {
	OK    bool `json:"ok"`
	Saved int  `json:"saved"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.cfg.Version,
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionConfig{
		Annotator:     s.annotator,
		TotalProblems: len(s.problemIDs),
		SharedCount:   len(s.sharedIDs),
	})
}

// handleProblems returns the annotator's problems in assignment order.
func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.problemViews)
}

func (s *Server) handleStandards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hierarchy)
}

// handleAnnotations returns this annotator's saved records keyed by
// problem id.
func (s *Server) handleAnnotations(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.saved)
}

// handleAnnotatorLog returns another annotator's log from storage, for
// comparing overlap problems.
func (s *Server) handleAnnotatorLog(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("annotator")
	if err := security.ValidateAnnotatorName(name); err != nil {
		apperrors.WriteError(w, apperrors.ValidationError(err.Error()))
		return
	}

	records, err := s.storage.Load(name)
	if err != nil {
		apperrors.WriteError(w, apperrors.InternalError("loading annotations", err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleAnnotate validates and appends one annotation record. The
// record's annotator is always this session's annotator, regardless of
// the request body.
func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	var req annotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.InvalidRequestError("invalid JSON body"))
		return
	}

	codes := make([]string, 0, len(req.Standards))
	for _, ref := range req.Standards {
		codes = append(codes, ref.ID)
	}
	validator := security.AnnotateRequestValidator{ProblemID: req.ProblemID, Codes: codes}
	if err := validator.Validate(); err != nil {
		apperrors.WriteError(w, apperrors.ValidationError(err.Error()))
		return
	}
	if _, ok := s.problems[req.ProblemID]; !ok {
		apperrors.WriteError(w, apperrors.NotFoundError("problem"))
		return
	}

	record := &annotations.Record{
		ProblemID: req.ProblemID,
		Annotator: s.annotator,
		Standards: req.Standards,
		Notes:     req.Notes,
		Skipped:   req.Skipped,
	}

	start := time.Now()
	appendErr := s.storage.Append(record)
	latency := time.Since(start).Milliseconds()

	if s.metrics != nil {
		switch {
		case appendErr != nil:
			s.metrics.RecordAnnotationSave(s.annotator, len(codes), latency, appendErr)
		case record.Skipped:
			s.metrics.RecordAnnotationSkip(s.annotator)
		default:
			s.metrics.RecordAnnotationSave(s.annotator, len(codes), latency, nil)
		}
	}
	if appendErr != nil {
		apperrors.WriteError(w, apperrors.InternalError("saving annotation", appendErr))
		return
	}

	s.mu.Lock()
	s.saved[record.ProblemID] = record
	saved := len(s.saved)
	s.mu.Unlock()

	topic := bus.TopicAnnotationSaved
	if record.Skipped {
		topic = bus.TopicAnnotationSkipped
	}
	event := bus.NewEvent(topic, "annotation-server", map[string]any{
		"problem_id": record.ProblemID,
		"annotator":  record.Annotator,
		"code_count": len(codes),
	})
	if err := s.bus.Publish(r.Context(), topic, event); err != nil {
		s.log.WithError(err).Warn("publishing annotation event")
	}

	writeJSON(w, http.StatusOK, saveResult{OK: true, Saved: saved})
}

// handleMetricsSnapshot returns the JSON metrics snapshot used by the
// progress view.
func (s *Server) handleMetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.collector.Collect(r.Context())
	if err != nil {
		apperrors.WriteError(w, apperrors.InternalError("collecting metrics", err))
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// buildProblemViews resolves assigned ids against the problem map,
// skipping ids with no entry and applying view defaults.
func buildProblemViews(ids []string, probs map[string]*problems.Problem, shared map[string]bool) []problemView {
	views := make([]problemView, 0, len(ids))
	for _, id := range ids {
		p, ok := probs[id]
		if !ok {
			continue
		}
		v := problemView{
			ID:          p.ID,
			Text:        p.Text,
			Source:      p.Source,
			Metadata:    p.Metadata,
			Elements:    p.Elements,
			NumProblems: p.NumProblems,
			IsShared:    shared[id],
		}
		if v.Metadata == nil {
			v.Metadata = map[string]any{}
		}
		if v.Elements == nil {
			v.Elements = map[string]string{}
		}
		if v.NumProblems == 0 {
			v.NumProblems = 1
		}
		views = append(views, v)
	}
	return views
}
