package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	apierrors "github.com/copyleftdev/simplex/internal/errors"
	"github.com/copyleftdev/simplex/internal/lp"
)

// rpcRequest is a JSON-RPC 2.0 request. Params may be an object or an
// array whose first element is the object.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, apierrors.CodeParseError, "Parse error", nil)
		return
	}

	if request.JSONRPC != "2.0" {
		s.respondWithError(w, apierrors.CodeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "lp.solve":
		result, err = s.rpcSolve(r.Context(), request.Params)
	case "lp.dual":
		result, err = s.rpcDual(request.Params)
	case "lp.step":
		result, err = s.rpcStep(request.Params)
	default:
		s.respondWithError(w, apierrors.CodeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		e := apierrors.FromSolver(err)
		s.respondWithError(w, e.Code, e.Error(), request.ID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

// decodeParams unmarshals params into dst, unwrapping a one-element array.
func decodeParams(params json.RawMessage, dst interface{}) error {
	params = bytes.TrimSpace(params)
	if len(params) == 0 {
		return apierrors.BadRequest(nil, "missing required parameters")
	}
	if params[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(params, &list); err != nil {
			return apierrors.BadRequest(err, "invalid parameter format")
		}
		if len(list) == 0 {
			return apierrors.BadRequest(nil, "missing required parameters")
		}
		params = list[0]
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return apierrors.BadRequest(err, "invalid parameter format, expected object")
	}
	return nil
}

// rpcSolve handles lp.solve.
// Params: a LinearProgram object.
// Returns: {"id": "lp_1", "solution": {...}, "iterations": 1, "steps": 4}
func (s *Server) rpcSolve(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var program lp.LinearProgram
	if err := decodeParams(params, &program); err != nil {
		return nil, err
	}
	session, err := s.solve(ctx, &program)
	if err != nil {
		return nil, err
	}
	return newSolveResponse(session), nil
}

// rpcDual handles lp.dual.
// Params: a LinearProgram object.
// Returns: {"program": {...}, "variable_sign": ">="}
func (s *Server) rpcDual(params json.RawMessage) (interface{}, error) {
	var program lp.LinearProgram
	if err := decodeParams(params, &program); err != nil {
		return nil, err
	}
	return newDualResponse(&program)
}

// rpcStep handles lp.step.
// Params: {"solve_id": "lp_1", "action": "next"} or {"solve_id": "lp_1", "index": 3}
// Returns: the step under the cursor after moving it.
func (s *Server) rpcStep(params json.RawMessage) (interface{}, error) {
	var p stepParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.step(p)
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Debug("RPC error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}
