package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/simplex/internal/config"
	apierrors "github.com/copyleftdev/simplex/internal/errors"
	"github.com/copyleftdev/simplex/internal/logging"
	"github.com/copyleftdev/simplex/internal/lp"
	"github.com/copyleftdev/simplex/internal/metrics"
)

// Logger defines the logging interface used by the server
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// SolveSession is a finished solve kept for replay. The result and history
// never change after creation; only the cursor moves.
type SolveSession struct {
	ID        string
	Program   *lp.LinearProgram
	Result    *lp.Result
	Reference *ReferenceCheck
	Cursor    *lp.Cursor
	CreatedAt time.Time
}

// ReferenceCheck compares a solve against gonum's simplex.
type ReferenceCheck struct {
	Status         string  `json:"status"`
	ObjectiveValue float64 `json:"objective_value"`
	Agrees         bool    `json:"agrees"`
	Error          string  `json:"error,omitempty"`
}

// Server implements the HTTP and JSON-RPC API of the solver.
type Server struct {
	cfg     *config.Config
	logger  Logger
	solver  *lp.Solver
	metrics *metrics.Metrics

	sessions   map[string]*SolveSession
	order      []string
	sessionsMu sync.Mutex // Protects sessions, order and every session cursor
	nextID     atomic.Int64
}

// NewServer creates a server. A nil m gets unregistered collectors.
func NewServer(cfg *config.Config, logger Logger, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New(nil)
	}
	solverCfg := cfg.SolverConfig()
	solverCfg.Logger = logging.NewZapLogger(logger.WithFields(map[string]interface{}{
		"component": "solver",
	}))

	return &Server{
		cfg:      cfg,
		logger:   logger,
		solver:   lp.NewSolver(solverCfg),
		metrics:  m,
		sessions: make(map[string]*SolveSession),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Post("/dual", s.handleDual)
		r.Get("/solves/{id}", s.handleSession)
		r.Delete("/solves/{id}", s.handleDelete)
		r.Get("/solves/{id}/steps", s.handleSteps)
		r.Get("/solves/{id}/steps/{index}", s.handleStep)
		r.Post("/solves/{id}/cursor/{action}", s.handleCursor)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// solveResponse is returned by POST /solve and lp.solve.
type solveResponse struct {
	ID         string          `json:"id"`
	Solution   *lp.Solution    `json:"solution"`
	Iterations int             `json:"iterations"`
	Steps      int             `json:"steps"`
	Reference  *ReferenceCheck `json:"reference,omitempty"`
}

// dualResponse is returned by POST /dual and lp.dual.
type dualResponse struct {
	Program      *lp.LinearProgram `json:"program"`
	VariableSign lp.Relation       `json:"variable_sign"`
}

// stepResponse is returned by step and cursor endpoints.
type stepResponse struct {
	SolveID string  `json:"solve_id"`
	Index   int     `json:"index"`
	Count   int     `json:"count"`
	Step    lp.Step `json:"step"`
}

// stepParams selects a step of a session: either an absolute index or a
// cursor action (next, prev, first, last). With neither, the current step
// is returned.
type stepParams struct {
	SolveID string `json:"solve_id"`
	Action  string `json:"action,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

// solve runs the solver synchronously and stores the finished session.
func (s *Server) solve(ctx context.Context, program *lp.LinearProgram) (*SolveSession, error) {
	start := time.Now()
	result, err := s.solver.Solve(ctx, program)
	took := time.Since(start)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.metrics.ObserveCancelled(took)
			s.logger.Debug("Solve cancelled", map[string]interface{}{"error": err.Error()})
		} else {
			s.metrics.ObserveError(took)
			s.logger.Warn("Solve failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, apierrors.FromSolver(err)
	}
	s.metrics.ObserveSolve(result.Solution.Status.String(), result.Iterations, took)

	session := &SolveSession{
		ID:        fmt.Sprintf("lp_%d", s.nextID.Add(1)),
		Program:   program.Clone(),
		Result:    result,
		Cursor:    lp.NewCursor(result.Steps),
		CreatedAt: time.Now(),
	}
	if s.cfg.Solver.Verify {
		session.Reference = s.verify(program, result.Solution)
	}

	s.store(session)

	s.logger.Info("Solve completed", map[string]interface{}{
		"solve_id":   session.ID,
		"status":     result.Solution.Status.String(),
		"iterations": result.Iterations,
		"latency_ms": float64(took.Microseconds()) / 1000.0,
	})
	return session, nil
}

// verify cross-checks a solution with the reference solver.
func (s *Server) verify(program *lp.LinearProgram, got *lp.Solution) *ReferenceCheck {
	ref, err := lp.ReferenceSolve(program, 0)
	if err != nil {
		return &ReferenceCheck{Error: err.Error()}
	}
	check := &ReferenceCheck{
		Status:         ref.Status.String(),
		ObjectiveValue: ref.ObjectiveValue,
		Agrees:         ref.Status == got.Status,
	}
	if check.Agrees && got.IsOptimal() {
		scale := math.Max(1, math.Abs(ref.ObjectiveValue))
		check.Agrees = math.Abs(ref.ObjectiveValue-got.ObjectiveValue) <= 1e-6*scale
	}
	if !check.Agrees {
		s.logger.Warn("Reference solver disagrees", map[string]interface{}{
			"status":           got.Status.String(),
			"reference_status": check.Status,
			"objective":        got.ObjectiveValue,
			"reference":        check.ObjectiveValue,
		})
	}
	return check
}

// store adds a session, evicting the oldest ones beyond the configured limit.
func (s *Server) store(session *SolveSession) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	for len(s.order) >= s.cfg.Sessions.Max && len(s.order) > 0 {
		evicted := s.order[0]
		s.order = s.order[1:]
		delete(s.sessions, evicted)
		s.logger.Debug("Session evicted", map[string]interface{}{"solve_id": evicted})
	}
	s.sessions[session.ID] = session
	s.order = append(s.order, session.ID)
	s.metrics.Sessions.Set(float64(len(s.sessions)))
}

func (s *Server) session(id string) (*SolveSession, error) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, apierrors.NotFound("solve %q not found", id)
	}
	return session, nil
}

func (s *Server) deleteSession(id string) error {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return apierrors.NotFound("solve %q not found", id)
	}
	delete(s.sessions, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.metrics.Sessions.Set(float64(len(s.sessions)))
	return nil
}

// step moves the cursor of a session as requested and returns the step
// under it.
func (s *Server) step(p stepParams) (*stepResponse, error) {
	if p.SolveID == "" {
		return nil, apierrors.BadRequest(nil, "solve_id is required")
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	session, ok := s.sessions[p.SolveID]
	if !ok {
		return nil, apierrors.NotFound("solve %q not found", p.SolveID)
	}
	c := session.Cursor

	if p.Index != nil {
		if err := c.Seek(*p.Index); err != nil {
			return nil, apierrors.FromSolver(err)
		}
	} else {
		switch p.Action {
		case "":
		case "next":
			c.Advance()
		case "prev":
			c.Retreat()
		case "first":
			c.First()
		case "last":
			c.Last()
		default:
			return nil, apierrors.BadRequest(nil, "unknown cursor action %q", p.Action)
		}
	}

	current, _ := c.Current()
	return &stepResponse{
		SolveID: session.ID,
		Index:   c.Index(),
		Count:   c.Len(),
		Step:    current,
	}, nil
}

func newSolveResponse(session *SolveSession) *solveResponse {
	return &solveResponse{
		ID:         session.ID,
		Solution:   session.Result.Solution,
		Iterations: session.Result.Iterations,
		Steps:      len(session.Result.Steps),
		Reference:  session.Reference,
	}
}

func newDualResponse(program *lp.LinearProgram) (*dualResponse, error) {
	if err := program.Validate(); err != nil {
		return nil, apierrors.FromSolver(err)
	}
	return &dualResponse{
		Program:      lp.Dual(program),
		VariableSign: lp.DualVariableSign(program),
	}, nil
}

// Close drops all stored sessions.
func (s *Server) Close() error {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	s.sessions = make(map[string]*SolveSession)
	s.order = nil
	s.metrics.Sessions.Set(0)
	return nil
}

// writeJSON writes v with the given status code. v is encoded before the
// header is sent; if encoding fails the client gets a 500 instead.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		apierrors.Internal(err, "failed to encode response").WriteJSON(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

// writeError writes err as an API error response.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	e := apierrors.FromSolver(err)
	if e.Status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", map[string]interface{}{"error": e.Error()})
	}
	e.WriteJSON(w)
}

func decodeProgram(r *http.Request) (*lp.LinearProgram, error) {
	var program lp.LinearProgram
	if err := json.NewDecoder(r.Body).Decode(&program); err != nil {
		return nil, apierrors.BadRequest(err, "invalid request body")
	}
	return &program, nil
}

// handleSolve handles POST /api/v1/solve
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	program, err := decodeProgram(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	session, err := s.solve(r.Context(), program)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSolveResponse(session))
}

// handleDual handles POST /api/v1/dual
func (s *Server) handleDual(w http.ResponseWriter, r *http.Request) {
	program, err := decodeProgram(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp, err := newDualResponse(program)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSession handles GET /api/v1/solves/{id}
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := s.session(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	current, err := s.step(stepParams{SolveID: id})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"solve":      newSolveResponse(session),
		"program":    session.Program,
		"created_at": session.CreatedAt.Format(time.RFC3339),
		"current":    current,
	})
}

// handleDelete handles DELETE /api/v1/solves/{id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.deleteSession(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSteps handles GET /api/v1/solves/{id}/steps
func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	session, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"solve_id": session.ID,
		"steps":    session.Result.Steps,
	})
}

// handleStep handles GET /api/v1/solves/{id}/steps/{index}
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, apierrors.BadRequest(err, "invalid step index"))
		return
	}

	resp, err := s.step(stepParams{SolveID: chi.URLParam(r, "id"), Index: &index})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCursor handles POST /api/v1/solves/{id}/cursor/{action}
func (s *Server) handleCursor(w http.ResponseWriter, r *http.Request) {
	resp, err := s.step(stepParams{
		SolveID: chi.URLParam(r, "id"),
		Action:  chi.URLParam(r, "action"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
