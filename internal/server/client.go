package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to a running Server over plain TCP HTTP.
type Client struct {
	httpClient *http.Client
	addr       string
}

// NewClient builds a Client pointed at addr (a host:port, matching
// config.Server.ListenAddr).
func NewClient(addr string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		addr:       addr,
	}
}

func (c *Client) url(path string) string {
	return "http://" + c.addr + path
}

// IsServerRunning reports whether Ping succeeds.
func (c *Client) IsServerRunning() bool {
	_, err := c.Ping()
	return err == nil
}

// Ping sends a health check.
func (c *Client) Ping() (*PingBody, error) {
	var body PingBody
	if err := c.postEnvelope("/ping", nil, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// Shutdown requests the server stop.
func (c *Client) Shutdown() error {
	return c.postEnvelope("/shutdown", nil, &struct{}{})
}

// WaitForReady polls Ping until it succeeds or timeout elapses.
func (c *Client) WaitForReady(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for server to be ready")
		case <-ticker.C:
			if c.IsServerRunning() {
				return nil
			}
		}
	}
}

// ImportFile registers pathList for parsing and returns the generated
// project name.
func (c *Client) ImportFile(pathList []string, appendImport bool) (string, error) {
	req := ImportFileRequest{Append: appendImport, PathList: pathList}
	var body ImportFileBody
	if err := c.postEnvelope("/import-file", req, &body); err != nil {
		return "", err
	}
	return body.ProjectName, nil
}

// GetAllGraph lists every known tag with its contributing files.
func (c *Client) GetAllGraph() (map[string][]string, error) {
	var body GetAllGraphBody
	if err := c.postEnvelope("/get-all-graph", nil, &body); err != nil {
		return nil, err
	}
	return body.Graph, nil
}

// GetScalarData runs a batch of graph queries and returns each graph's
// raw wire object (tag/file/lineType maps/dateConfig), since the set of
// line-type keys present varies per request.
func (c *Client) GetScalarData(req GetScalarDataRequest) ([]map[string]interface{}, error) {
	var body GetScalarDataBody
	if err := c.postEnvelope("/get-scalar-data", req, &body); err != nil {
		return nil, err
	}
	return body.GraphList, nil
}

// GetAddFiles drains the watcher's created-files log, grouped by
// directory.
func (c *Client) GetAddFiles() ([]AddFilesEntry, error) {
	var body GetAddFilesBody
	if err := c.postEnvelope("/get-add-files", nil, &body); err != nil {
		return nil, err
	}
	return body.AddFiles, nil
}

// GetParseState returns the parse progress of each named project.
func (c *Client) GetParseState(projectNames []string) ([]ParseStateEntry, error) {
	req := GetParseStateRequest{ProjectNameLists: projectNames}
	var body GetParseStateBody
	if err := c.postEnvelope("/get-parse-state", req, &body); err != nil {
		return nil, err
	}
	return body.StateList, nil
}

// GetIncrementalTag drains the tag/graph index's incremental log.
func (c *Client) GetIncrementalTag() ([]IncrementalTagEntry, error) {
	var body GetIncrementalTagBody
	if err := c.postEnvelope("/get-incremental-tag", nil, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// FileMerge creates or removes a virtual file over fileList.
func (c *Client) FileMerge(action, name string, fileList []string) (*FileMergeBody, error) {
	req := FileMergeRequest{Action: action, Name: name, FileList: fileList}
	var body FileMergeBody
	if err := c.postEnvelope("/file-merge", req, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// TokenParamSet sets per-file token-normalization parameters.
func (c *Client) TokenParamSet(params []TokenParamEntry) ([]TokenParamResultEntry, error) {
	req := TokenParamSetRequest{Params: params}
	var body TokenParamSetBody
	if err := c.postEnvelope("/token-param-set", req, &body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

// postEnvelope marshals req (nil becomes an empty JSON object), posts it
// to path, and decodes the §6 envelope's body into out. A non-OK errCode
// is returned as an error carrying the envelope's msg.
func (c *Client) postEnvelope(path string, req interface{}, out interface{}) error {
	var payload []byte
	var err error
	if req == nil {
		payload = []byte("{}")
	} else {
		payload, err = json.Marshal(req)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	resp, err := c.httpClient.Post(c.url(path), "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error: %s", string(raw))
	}

	env := Envelope{Body: out}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.ErrCode != codeOK || !env.Result {
		return fmt.Errorf("%s: %s", path, env.Msg)
	}
	return nil
}
