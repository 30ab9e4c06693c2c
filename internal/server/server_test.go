package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/simplex/internal/config"
	"github.com/copyleftdev/simplex/internal/logging"
	"github.com/copyleftdev/simplex/internal/metrics"
)

const textbookJSON = `{
	"objective": "maximize",
	"coefficients": [3, 2],
	"constraints": [
		{"coefficients": [1, 1], "relation": "<=", "value": 4},
		{"coefficients": [1, 3], "relation": "<=", "value": 6}
	]
}`

const unboundedJSON = `{
	"objective": "maximize",
	"coefficients": [1, 0],
	"constraints": [{"coefficients": [1, -1], "relation": "<=", "value": 1}]
}`

// testConfig creates a test configuration with default values
func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{
		Environment: "test",
	}

	cfg.HTTP.Port = 8080
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 30 * time.Second

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"
	cfg.Logging.Output = "stdout"

	cfg.Solver.Tolerance = 1e-9
	cfg.Solver.IterationFactor = 50
	cfg.Solver.Verify = true

	cfg.Sessions.Max = 8

	return cfg
}

// testLogger creates a test logger
func testLogger(t *testing.T) *logging.Logger {
	logger, err := logging.NewLogger(&logging.Config{
		Level:  "debug",
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

func newTestRouter(t *testing.T, cfg *config.Config) (*Server, chi.Router, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	srv := NewServer(cfg, testLogger(t), m)
	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	return srv, r, m
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out), rr.Body.String())
	return out
}

func TestNewServer(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t), nil)
	assert.NotNil(t, srv, "Server should be created")
	assert.NotNil(t, srv.metrics)
	assert.Equal(t, 1e-9, srv.solver.Config().Tolerance)
}

func TestRegisterRoutes(t *testing.T) {
	_, r, _ := newTestRouter(t, testConfig(t))

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/solve"},
		{"POST", "/api/v1/dual"},
		{"GET", "/api/v1/solves/lp_1"},
		{"DELETE", "/api/v1/solves/lp_1"},
		{"GET", "/api/v1/solves/lp_1/steps"},
		{"GET", "/api/v1/solves/lp_1/steps/0"},
		{"POST", "/api/v1/solves/lp_1/cursor/next"},
		{"POST", "/rpc"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := do(t, r, tt.method, tt.path, "")
			assert.NotEqual(t, http.StatusMethodNotAllowed, rr.Code)
			if rr.Code == http.StatusNotFound {
				// Unknown sessions are 404 with a JSON body, unknown routes are plain text.
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			}
		})
	}

	rr := do(t, r, "GET", "/healthz", "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "health is not registered by the server package")
}

func TestSolveAndReplay(t *testing.T) {
	_, r, m := newTestRouter(t, testConfig(t))

	rr := do(t, r, "POST", "/api/v1/solve", textbookJSON)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decode(t, rr)

	id := body["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, float64(1), body["iterations"])
	assert.Equal(t, float64(4), body["steps"])
	solution := body["solution"].(map[string]interface{})
	assert.Equal(t, "optimal", solution["status"])
	assert.Equal(t, []interface{}{4.0, 0.0}, solution["values"])
	assert.InDelta(t, 12, solution["objective_value"], 1e-9)
	reference := body["reference"].(map[string]interface{})
	assert.Equal(t, true, reference["agrees"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues("optimal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sessions))

	// Session starts on the initial tableau.
	rr = do(t, r, "GET", "/api/v1/solves/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	current := decode(t, rr)["current"].(map[string]interface{})
	assert.Equal(t, float64(0), current["index"])
	assert.Equal(t, "initial", current["step"].(map[string]interface{})["kind"])

	// Cursor navigation.
	rr = do(t, r, "POST", "/api/v1/solves/"+id+"/cursor/prev", "")
	assert.Equal(t, float64(0), decode(t, rr)["index"])

	rr = do(t, r, "POST", "/api/v1/solves/"+id+"/cursor/next", "")
	step := decode(t, rr)
	assert.Equal(t, float64(1), step["index"])
	inner := step["step"].(map[string]interface{})
	assert.Equal(t, "pivot_selected", inner["kind"])
	assert.Equal(t, map[string]interface{}{"row": 1.0, "column": 0.0}, inner["pivot"])

	rr = do(t, r, "POST", "/api/v1/solves/"+id+"/cursor/last", "")
	step = decode(t, rr)
	assert.Equal(t, float64(3), step["index"])
	assert.Equal(t, float64(4), step["count"])

	rr = do(t, r, "POST", "/api/v1/solves/"+id+"/cursor/next", "")
	assert.Equal(t, float64(3), decode(t, rr)["index"])

	rr = do(t, r, "POST", "/api/v1/solves/"+id+"/cursor/first", "")
	assert.Equal(t, float64(0), decode(t, rr)["index"])

	rr = do(t, r, "POST", "/api/v1/solves/"+id+"/cursor/sideways", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Direct indexing.
	rr = do(t, r, "GET", "/api/v1/solves/"+id+"/steps/2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	tableau := decode(t, rr)["step"].(map[string]interface{})["tableau"].(map[string]interface{})
	assert.Equal(t, []interface{}{0.0, 1.0, 3.0, 0.0, 12.0}, tableau["rows"].([]interface{})[0])

	rr = do(t, r, "GET", "/api/v1/solves/"+id+"/steps/9", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, r, "GET", "/api/v1/solves/"+id+"/steps/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, r, "GET", "/api/v1/solves/"+id+"/steps", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["steps"], 4)

	// Delete.
	rr = do(t, r, "DELETE", "/api/v1/solves/"+id, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, r, "GET", "/api/v1/solves/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Sessions))
}

func TestSolveUnbounded(t *testing.T) {
	_, r, m := newTestRouter(t, testConfig(t))

	rr := do(t, r, "POST", "/api/v1/solve", unboundedJSON)
	require.Equal(t, http.StatusCreated, rr.Code)
	body := decode(t, rr)

	solution := body["solution"].(map[string]interface{})
	assert.Equal(t, "unbounded", solution["status"])
	assert.NotContains(t, solution, "objective_value")
	assert.NotContains(t, solution, "values")
	assert.Equal(t, float64(4), body["steps"])
	assert.Equal(t, true, body["reference"].(map[string]interface{})["agrees"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues("unbounded")))
}

func TestSolveErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Solver.MaxIterations = 2
	_, r, m := newTestRouter(t, cfg)

	rr := do(t, r, "POST", "/api/v1/solve", `{"objective": "max", "coefficients": [1, 1],
		"constraints": [{"coefficients": [1, 1, 1], "value": 3}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, decode(t, rr)["error"], "shape mismatch")

	rr = do(t, r, "POST", "/api/v1/solve", `{"objective": `)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	wyndor := `{"objective": "max", "coefficients": [3, 5], "constraints": [
		{"coefficients": [1, 0], "value": 4},
		{"coefficients": [0, 2], "value": 12},
		{"coefficients": [3, 2], "value": 18}]}`
	rr = do(t, r, "POST", "/api/v1/solve", wyndor)
	assert.Equal(t, http.StatusConflict, rr.Code)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Solves.WithLabelValues("error")))
}

func TestSolveNumericOverflow(t *testing.T) {
	srv, r, m := newTestRouter(t, testConfig(t))

	rr := do(t, r, "POST", "/api/v1/solve", `{"objective": "max", "coefficients": [1e10],
		"constraints": [{"coefficients": [1e-5], "value": 1e305}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, decode(t, rr)["error"], "numeric overflow")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues("error")))
	assert.Empty(t, srv.sessions)
}

func TestSolveCancelled(t *testing.T) {
	_, r, m := newTestRouter(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("POST", "/api/v1/solve", strings.NewReader(textbookJSON)).WithContext(ctx)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestTimeout, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues("cancelled")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Solves.WithLabelValues("error")))
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]float64{"objective_value": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, decode(t, rr)["error"], "failed to encode response")

	rr = httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]int{"steps": 4})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, 4.0, decode(t, rr)["steps"])
}

func TestSessionEviction(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sessions.Max = 2
	srv, r, _ := newTestRouter(t, cfg)

	var ids []string
	for i := 0; i < 3; i++ {
		rr := do(t, r, "POST", "/api/v1/solve", textbookJSON)
		require.Equal(t, http.StatusCreated, rr.Code)
		ids = append(ids, decode(t, rr)["id"].(string))
	}

	_, err := srv.session(ids[0])
	assert.Error(t, err)
	_, err = srv.session(ids[2])
	assert.NoError(t, err)

	require.NoError(t, srv.Close())
	_, err = srv.session(ids[2])
	assert.Error(t, err)
}

func TestDual(t *testing.T) {
	_, r, _ := newTestRouter(t, testConfig(t))

	rr := do(t, r, "POST", "/api/v1/dual", `{"objective": "maximize", "coefficients": [5, 4],
		"constraints": [
			{"coefficients": [2, 1], "relation": "<=", "value": 10},
			{"coefficients": [1, 3], "relation": "<=", "value": 15}]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)

	assert.Equal(t, ">=", body["variable_sign"])
	program := body["program"].(map[string]interface{})
	assert.Equal(t, "minimize", program["objective"])
	assert.Equal(t, []interface{}{10.0, 15.0}, program["coefficients"])
	constraints := program["constraints"].([]interface{})
	require.Len(t, constraints, 2)
	assert.Equal(t, map[string]interface{}{
		"coefficients": []interface{}{2.0, 1.0},
		"relation":     ">=",
		"value":        5.0,
	}, constraints[0])

	rr = do(t, r, "POST", "/api/v1/dual", `{"objective": "maximize", "coefficients": [], "constraints": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRespondWithError(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t), nil)

	tests := []struct {
		name       string
		code       int
		message    string
		id         interface{}
		expectedID interface{}
	}{
		{
			name:       "valid error response",
			code:       -32602,
			message:    "invalid input",
			id:         "123",
			expectedID: "123",
		},
		{
			name:       "nil id",
			code:       -32000,
			message:    "server error",
			id:         nil,
			expectedID: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.respondWithError(rr, tt.code, tt.message, tt.id)

			assert.Equal(t, http.StatusOK, rr.Code, "JSON-RPC errors are sent with 200")

			response := decode(t, rr)
			errObj, ok := response["error"].(map[string]interface{})
			assert.True(t, ok, "response should contain error object")
			assert.Equal(t, float64(tt.code), errObj["code"], "error code should match")
			assert.Equal(t, tt.message, errObj["message"], "error message should match")
			assert.Equal(t, tt.expectedID, response["id"], "response ID should match")
		})
	}
}

func rpc(t *testing.T, r http.Handler, method string, params interface{}) map[string]interface{} {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      7,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/rpc", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	return decode(t, rr)
}

func TestJSONRPC(t *testing.T) {
	_, r, _ := newTestRouter(t, testConfig(t))

	var program map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(textbookJSON), &program))

	resp := rpc(t, r, "lp.solve", []interface{}{program})
	require.NotContains(t, resp, "error")
	assert.Equal(t, float64(7), resp["id"])
	result := resp["result"].(map[string]interface{})
	id := result["id"].(string)
	assert.InDelta(t, 12, result["solution"].(map[string]interface{})["objective_value"], 1e-9)

	resp = rpc(t, r, "lp.step", map[string]interface{}{"solve_id": id, "action": "last"})
	step := resp["result"].(map[string]interface{})
	assert.Equal(t, float64(3), step["index"])
	assert.Equal(t, "optimal", step["step"].(map[string]interface{})["kind"])

	resp = rpc(t, r, "lp.step", map[string]interface{}{"solve_id": id, "index": 1})
	assert.Equal(t, float64(1), resp["result"].(map[string]interface{})["index"])

	resp = rpc(t, r, "lp.dual", program)
	dual := resp["result"].(map[string]interface{})["program"].(map[string]interface{})
	assert.Equal(t, "minimize", dual["objective"])

	resp = rpc(t, r, "lp.step", map[string]interface{}{"solve_id": "lp_missing"})
	assert.Equal(t, float64(-32602), resp["error"].(map[string]interface{})["code"])

	resp = rpc(t, r, "lp.solve", nil)
	assert.Equal(t, float64(-32602), resp["error"].(map[string]interface{})["code"])

	resp = rpc(t, r, "lp.nope", program)
	assert.Equal(t, float64(-32601), resp["error"].(map[string]interface{})["code"])

	rr := do(t, r, "POST", "/rpc", `{"jsonrpc": "1.0", "method": "lp.solve"}`)
	assert.Equal(t, float64(-32600), decode(t, rr)["error"].(map[string]interface{})["code"])

	rr = do(t, r, "POST", "/rpc", `not json`)
	assert.Equal(t, float64(-32700), decode(t, rr)["error"].(map[string]interface{})["code"])
}
