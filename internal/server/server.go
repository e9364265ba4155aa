// Package server exposes an Engine over a local JSON-over-HTTP listener
// (§6.1): bare net/http, no framework, following the teacher's own
// IndexServer. Every request that takes parameters is read once,
// validated against a jsonschema-go schema, decoded into a typed request
// struct, and run against the Engine; the parameterless ones (ping,
// shutdown, get-all-graph, get-add-files, get-incremental-tag) ignore the
// body. Every response is wrapped in the envelope of §6.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/standardbeagle/scalarviz/internal/config"
	"github.com/standardbeagle/scalarviz/internal/debug"
	"github.com/standardbeagle/scalarviz/internal/engine"
	"github.com/standardbeagle/scalarviz/internal/point"
	"github.com/standardbeagle/scalarviz/internal/query"
)

// Server serves one Engine's command set over TCP HTTP.
type Server struct {
	eng *engine.Engine
	cfg *config.Config

	listener net.Listener
	http     *http.Server

	startTime    time.Time
	shutdownChan chan struct{}
	wg           sync.WaitGroup

	mu      sync.RWMutex
	running bool
}

// New builds a Server bound to eng, not yet listening.
func New(cfg *config.Config, eng *engine.Engine) *Server {
	return &Server{
		eng:          eng,
		cfg:          cfg,
		startTime:    time.Now(),
		shutdownChan: make(chan struct{}),
	}
}

// Start binds cfg.Server.ListenAddr and begins serving in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.mu.Unlock()

	listener, err := net.Listen("tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.ListenAddr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	s.registerHandlers(mux)
	s.http = &http.Server{Handler: mux}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.Serve(listener); err != nil && err != http.ErrServerClosed {
			debug.LogServer("serve error: %v", err)
		}
	}()

	debug.LogServer("listening on %s (pid %d)", s.listener.Addr(), os.Getpid())
	return nil
}

// Wait blocks until a /shutdown request (or Shutdown) closes the
// server's shutdown channel.
func (s *Server) Wait() {
	<-s.shutdownChan
}

// Shutdown gracefully stops the HTTP server and the underlying engine.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
	}
	s.wg.Wait()
	s.eng.Close()
	debug.LogServer("shut down cleanly")
	return nil
}

func (s *Server) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/ping", s.handlePing)
	mux.HandleFunc("/shutdown", s.handleShutdown)
	mux.HandleFunc("/import-file", s.handleImportFile)
	mux.HandleFunc("/get-all-graph", s.handleGetAllGraph)
	mux.HandleFunc("/get-scalar-data", s.handleGetScalarData)
	mux.HandleFunc("/get-add-files", s.handleGetAddFiles)
	mux.HandleFunc("/get-parse-state", s.handleGetParseState)
	mux.HandleFunc("/get-incremental-tag", s.handleGetIncrementalTag)
	mux.HandleFunc("/file-merge", s.handleFileMerge)
	mux.HandleFunc("/token-param-set", s.handleTokenParamSet)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, PingBody{UptimeSeconds: time.Since(s.startTime).Seconds()}, "", codeOK, true)
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, struct{}{}, "shutting down", codeOK, true)
	go func() {
		time.Sleep(100 * time.Millisecond)
		close(s.shutdownChan)
	}()
}

func (s *Server) handleImportFile(w http.ResponseWriter, r *http.Request) {
	raw, ok := readAndValidate(w, r, importFileSchema)
	if !ok {
		return
	}
	var req ImportFileRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeEnvelope(w, nil, err.Error(), codeInvalidRequestJSON, false)
		return
	}
	if len(req.PathList) == 0 {
		writeEnvelope(w, nil, "pathList must not be empty", codeRequestInvalidParam, false)
		return
	}

	project, err := s.eng.ImportFile(req.PathList, req.Append)
	if err != nil {
		// per-path import errors (§7: unreadable or unsupported paths) never
		// fail the request; they're logged and surfaced through stalled
		// parse-state percentage instead.
		debug.LogServer("import-file partial failure: %v", err)
	}
	writeEnvelope(w, ImportFileBody{ProjectName: project}, "", codeOK, true)
}

func (s *Server) handleGetAllGraph(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, GetAllGraphBody{Graph: s.eng.GetAllGraph()}, "", codeOK, true)
}

func (s *Server) handleGetScalarData(w http.ResponseWriter, r *http.Request) {
	raw, ok := readAndValidate(w, r, getScalarDataSchema)
	if !ok {
		return
	}
	var req GetScalarDataRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeEnvelope(w, nil, err.Error(), codeInvalidRequestJSON, false)
		return
	}
	for _, g := range req.GraphList {
		if g.End != 0 && g.Start > g.End {
			writeEnvelope(w, nil, "start must not exceed end", codeRequestInvalidParam, false)
			return
		}
	}

	queries := make([]query.GraphQuery, len(req.GraphList))
	for i, g := range req.GraphList {
		cfg := make([]query.ConfigEntry, len(g.GraphConfig))
		for j, c := range g.GraphConfig {
			cfg[j] = query.ConfigEntry{
				Type: c.Type, Enable: c.Enable, Algorithm: c.Algorithm,
				Weight: c.Weight, Window: c.Window, Top: c.Top,
			}
		}
		queries[i] = query.GraphQuery{Tag: g.Tag, File: g.File, Start: g.Start, End: g.End, Config: cfg}
	}

	results, err := s.eng.GetScalarData(queries)
	if err != nil {
		writeEnvelope(w, nil, err.Error(), codeRequestInvalidParam, false)
		return
	}

	out := make([]map[string]interface{}, len(results))
	for i, res := range results {
		out[i] = graphResultToWire(res, s.eng)
	}
	writeEnvelope(w, GetScalarDataBody{GraphList: out}, "", codeOK, true)
}

// graphResultToWire renders one query.QueryResult into §6's
// `{ tag, file, <lineTypeName>: { "<step>": {...} }, dateConfig,
// suggestion? }` shape, keying each line by its LineType.String() since
// the set of lines present varies per request (normal/sample/smoothing/
// token/...).
func graphResultToWire(res query.QueryResult, eng *engine.Engine) map[string]interface{} {
	out := map[string]interface{}{
		"tag":  res.Tag,
		"file": res.File,
	}
	for _, line := range res.Lines {
		out[line.Type.String()] = pointsToWire(line.Points)
	}
	dateConfig := make([]DateConfigEntry, len(res.DateConfig))
	for i, d := range res.DateConfig {
		dateConfig[i] = DateConfigEntry{Step: d.Step, Value: float64(d.Value), Date: d.Date}
	}
	out["dateConfig"] = dateConfig

	hasPoints := false
	for _, line := range res.Lines {
		if len(line.Points) > 0 {
			hasPoints = true
			break
		}
	}
	if !hasPoints && res.Tag != "" {
		if suggestions := eng.SuggestTags(res.Tag, 1); len(suggestions) > 0 {
			out["suggestion"] = suggestions[0]
		}
	}
	return out
}

func pointsToWire(points []point.ScalarPoint) map[string]interface{} {
	out := make(map[string]interface{}, len(points))
	for _, p := range points {
		out[fmt.Sprintf("%d", p.Step)] = map[string]interface{}{
			"value":    wireFloat(float64(p.Value)),
			"wallTime": p.WallTime,
			"date":     p.LocalTime,
		}
	}
	return out
}

// wireFloat renders non-finite values as the string forms §6 specifies
// ("nan", "inf", "-inf") instead of letting encoding/json reject them.
func wireFloat(v float64) interface{} {
	switch {
	case v != v:
		return "nan"
	case v > maxJSONFloat:
		return "inf"
	case v < -maxJSONFloat:
		return "-inf"
	default:
		return v
	}
}

const maxJSONFloat = 1.7976931348623157e+308 // math.MaxFloat64, avoids importing math for one constant

func (s *Server) handleGetAddFiles(w http.ResponseWriter, r *http.Request) {
	added := s.eng.GetAddFiles()
	out := make([]AddFilesEntry, len(added))
	for i, a := range added {
		out[i] = AddFilesEntry{Dir: a.Dir, FileList: a.FileList}
	}
	writeEnvelope(w, GetAddFilesBody{AddFiles: out}, "", codeOK, true)
}

func (s *Server) handleGetParseState(w http.ResponseWriter, r *http.Request) {
	raw, ok := readAndValidate(w, r, getParseStateSchema)
	if !ok {
		return
	}
	var req GetParseStateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeEnvelope(w, nil, err.Error(), codeInvalidRequestJSON, false)
		return
	}
	snaps := s.eng.GetParseState(req.ProjectNameLists)
	out := make([]ParseStateEntry, len(snaps))
	for i, snap := range snaps {
		out[i] = ParseStateEntry{ProjectName: snap.ProjectName, Finish: snap.Finished, Percent: snap.Percent}
	}
	writeEnvelope(w, GetParseStateBody{StateList: out}, "", codeOK, true)
}

func (s *Server) handleGetIncrementalTag(w http.ResponseWriter, r *http.Request) {
	groups := s.eng.GetIncrementalTag()
	out := make([]IncrementalTagEntry, len(groups))
	for i, g := range groups {
		files := make([]IncrementalFileEntry, len(g.FileList))
		for j, f := range g.FileList {
			files[j] = IncrementalFileEntry{Name: f.Name, Path: f.Path, Dirs: f.Dirs}
		}
		out[i] = IncrementalTagEntry{Tag: g.Tag, FileList: files}
	}
	writeEnvelope(w, GetIncrementalTagBody{Data: out}, "", codeOK, true)
}

func (s *Server) handleFileMerge(w http.ResponseWriter, r *http.Request) {
	raw, ok := readAndValidate(w, r, fileMergeSchema)
	if !ok {
		return
	}
	var req FileMergeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeEnvelope(w, nil, err.Error(), codeInvalidRequestJSON, false)
		return
	}
	if req.Name == "" {
		writeEnvelope(w, nil, "name must not be empty", codeRequestInvalidParam, false)
		return
	}

	res, err := s.eng.FileMerge(req.Action, req.Name, req.FileList)
	if err != nil {
		writeEnvelope(w, nil, err.Error(), codeRequestInvalidParam, false)
		return
	}
	writeEnvelope(w, FileMergeBody{
		Action:   res.Action,
		File:     res.File,
		Tags:     res.Tags,
		FileList: res.FileList,
	}, "", codeOK, true)
}

func (s *Server) handleTokenParamSet(w http.ResponseWriter, r *http.Request) {
	raw, ok := readAndValidate(w, r, tokenParamSetSchema)
	if !ok {
		return
	}
	var req TokenParamSetRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeEnvelope(w, nil, err.Error(), codeInvalidRequestJSON, false)
		return
	}

	params := make([]engine.TokenParamRequest, len(req.Params))
	for i, p := range req.Params {
		params[i] = engine.TokenParamRequest{File: p.File, GlobalBatchSize: p.GlobalBatchSize, SeqLength: p.SeqLength}
	}
	results, err := s.eng.TokenParamSet(params)
	out := make([]TokenParamResultEntry, len(results))
	for i, res := range results {
		out[i] = TokenParamResultEntry{
			File:         res.File,
			AffectedTags: res.AffectedTags,
			GlobalBatch:  res.GlobalBatch,
			SeqLength:    res.SeqLength,
			Coefficient:  res.Coefficient,
		}
	}
	if err != nil {
		writeEnvelope(w, TokenParamSetBody{Results: out}, err.Error(), codeRequestInvalidParam, false)
		return
	}
	writeEnvelope(w, TokenParamSetBody{Results: out}, "", codeOK, true)
}

// readAndValidate reads r.Body once and checks it against schema via
// jsonschema-go's Resolve/Validate pair (§4.9.1). On failure it writes the
// INVALID_REQUEST_JSON envelope itself and returns ok=false; callers
// should return immediately. On success the raw bytes are returned for a
// second, typed json.Unmarshal.
func readAndValidate(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema) ([]byte, bool) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeEnvelope(w, nil, err.Error(), codeInvalidRequestJSON, false)
		return nil, false
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		writeEnvelope(w, nil, err.Error(), codeInvalidRequestJSON, false)
		return nil, false
	}
	if err := validateAgainst(schema, generic); err != nil {
		writeEnvelope(w, nil, err.Error(), codeInvalidRequestJSON, false)
		return nil, false
	}
	return raw, true
}

// writeEnvelope marshals body/msg/errCode/result into the §6 response
// wrapper and writes it with a 200 status: request-level failures are
// signaled through errCode, not the HTTP status line, per §6's
// propagation rule.
func writeEnvelope(w http.ResponseWriter, body interface{}, msg string, errCode int, result bool) {
	w.Header().Set("Content-Type", "application/json")
	if body == nil {
		body = struct{}{}
	}
	json.NewEncoder(w).Encode(Envelope{Body: body, Msg: msg, ErrCode: errCode, Result: result})
}
