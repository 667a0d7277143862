// Package httpapi exposes the sandbox as the two JSON endpoints described in
// spec §6, for deployments that run the sandbox out-of-process from the
// orchestrator. It is a thin wrapper: all behavior lives in typeprojector
// and sandbox, this package only does JSON framing.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jonwraymond/codeloop/sandbox"
	"github.com/jonwraymond/codeloop/tool"
	"github.com/jonwraymond/codeloop/typeprojector"
)

const maxRequestBodyBytes = 1 << 20

// Server is the HTTP front end for a sandbox.Sandbox.
type Server struct {
	sandbox sandbox.Sandbox
	srv     *http.Server
	logger  *slog.Logger
}

// NewServer builds a Server listening at addr.
func NewServer(addr string, sb sandbox.Sandbox, logger *slog.Logger) *Server {
	s := &Server{sandbox: sb, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /convert-tools", s.handleConvertTools)
	mux.HandleFunc("POST /evaluate", s.handleEvaluate)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      withLogging(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving the configured address.
func (s *Server) ListenAndServe() error {
	s.logger.Info("httpapi server starting", "addr", s.srv.Addr)
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.srv.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// convertToolsResponse is the wire shape of spec §6's
// `convert-tools: [Tool] -> {runTypescriptTool, systemMessage}`.
type convertToolsResponse struct {
	RunTypescriptTool string `json:"runTypescriptTool"`
	SystemMessage     string `json:"systemMessage"`
}

func (s *Server) handleConvertTools(w http.ResponseWriter, r *http.Request) {
	var tools []tool.Tool
	if err := decodeJSONBody(w, r, &tools); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	set, err := tool.NewSet(tools...)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	decls, err := typeprojector.Project(set)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, convertToolsResponse{
		RunTypescriptTool: "run_typescript",
		SystemMessage:     decls,
	})
}

// evaluateRequest is the wire shape of spec §6's
// `evaluate: {partial, tools} -> Outcome`.
type evaluateRequest struct {
	Code      string            `json:"code"`
	ToolState sandbox.ToolState `json:"toolState"`
	Tools     []tool.Tool       `json:"tools"`
}

// evaluateResponse tags sandbox.Outcome's sum type for the wire, per §4.A.
type evaluateResponse struct {
	Kind      string            `json:"kind"`
	Value     any               `json:"value,omitempty"`
	Error     string            `json:"error,omitempty"`
	ToolState sandbox.ToolState `json:"toolState"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	set, err := tool.NewSet(req.Tools...)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.sandbox.Evaluate(r.Context(), req.Code, req.ToolState, set)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := evaluateResponse{ToolState: outcome.ToolState}
	switch outcome.Kind {
	case sandbox.OutcomeSuccess:
		resp.Kind = "success"
		resp.Value = outcome.Value
	case sandbox.OutcomeError:
		resp.Kind = "error"
		resp.Error = outcome.Err.Error()
	case sandbox.OutcomePartial:
		resp.Kind = "partial"
	case sandbox.OutcomeEngineError:
		resp.Kind = "engine_error"
		resp.Error = outcome.Err.Error()
	default:
		writeErr(w, http.StatusInternalServerError, fmt.Sprintf("unknown outcome kind %v", outcome.Kind))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(sw, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
