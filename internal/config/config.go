package config

import (
	"fmt"
	"os"
	"runtime"

	scverrors "github.com/standardbeagle/scalarviz/internal/errors"
)

type Config struct {
	Version int
	Project Project
	Watch   Watch
	Parse   Parse
	Query   Query
	Server  Server
}

type Project struct {
	Root string
	Name string
}

// Watch controls the fsnotify-backed directory watcher (§4.5).
type Watch struct {
	Enabled      bool
	DebounceMs   int      // coalesces bursts of write events per file
	IncludeGlobs []string // doublestar patterns; empty means watch everything
	ExcludeGlobs []string
}

func (w Watch) Validate() error {
	if w.DebounceMs < 0 || w.DebounceMs > 60000 {
		return fmt.Errorf("watch.debounce_ms must be between 0 and 60000, got %d", w.DebounceMs)
	}
	return nil
}

// Parse holds settings for the worker pool that decodes wire-format files
// (§4.6). They are loaded and validated here; the parse pool the engine
// builds does not read them.
type Parse struct {
	MaxGoroutines int // worker count; Default sets runtime.NumCPU()
	MaxQueueDepth int // queue depth limit
	TimeoutSec    int // per-file parse timeout, in seconds
	MaxMemoryMB   int // memory limit, in MiB
}

func (p Parse) Validate() error {
	if p.MaxGoroutines < 0 {
		return fmt.Errorf("parse.max_goroutines must be >= 0, got %d", p.MaxGoroutines)
	}
	if p.MaxQueueDepth <= 0 {
		return fmt.Errorf("parse.max_queue_depth must be > 0, got %d", p.MaxQueueDepth)
	}
	if p.TimeoutSec <= 0 {
		return fmt.Errorf("parse.timeout_sec must be > 0, got %d", p.TimeoutSec)
	}
	return nil
}

// Query holds response-shaping settings for the line-op pipeline (§4.8,
// §4.9). They are loaded and validated here; the query pipeline does not
// read them.
type Query struct {
	MaxPoints         int // point limit per line
	DefaultSampleSize int
}

func (q Query) Validate() error {
	if q.MaxPoints <= 0 {
		return fmt.Errorf("query.max_points must be > 0, got %d", q.MaxPoints)
	}
	if q.DefaultSampleSize <= 0 {
		return fmt.Errorf("query.default_sample_size must be > 0, got %d", q.DefaultSampleSize)
	}
	return nil
}

// Server controls the HTTP transport (§6.1).
type Server struct {
	ListenAddr string
}

func (s Server) Validate() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must not be empty")
	}
	return nil
}

// Validate checks every section and reports the first failure as a
// ValidationError so callers can surface it through the same taxonomy as
// request-time validation failures.
func (c *Config) Validate() error {
	if err := c.Watch.Validate(); err != nil {
		return scverrors.NewValidationError("watch", err)
	}
	if err := c.Parse.Validate(); err != nil {
		return scverrors.NewValidationError("parse", err)
	}
	if err := c.Query.Validate(); err != nil {
		return scverrors.NewValidationError("query", err)
	}
	if err := c.Server.Validate(); err != nil {
		return scverrors.NewValidationError("server", err)
	}
	return nil
}

func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		Version: 1,
		Project: Project{Root: cwd},
		Watch: Watch{
			Enabled:      true,
			DebounceMs:   300,
			IncludeGlobs: []string{},
			ExcludeGlobs: []string{"**/.git/**", "**/*.tmp"},
		},
		Parse: Parse{
			MaxGoroutines: runtime.NumCPU(),
			MaxQueueDepth: 256,
			TimeoutSec:    30,
			MaxMemoryMB:   512,
		},
		Query: Query{
			MaxPoints:         50000,
			DefaultSampleSize: 1000,
		},
		Server: Server{
			ListenAddr: ":8813",
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot layers a global ~/.scalarviz.kdl base config underneath a
// project-local .scalarviz.kdl, project settings winning on conflict but
// glob lists from both being combined (mirrors the teacher's base/project
// merge for exclusion patterns).
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	homeDir, err := os.UserHomeDir()
	var baseConfig *Config
	if err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	var projectConfig *Config
	if kdlCfg, err := LoadKDL(searchDir); err == nil && kdlCfg != nil {
		projectConfig = kdlCfg
	} else if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		baseConfig.Project.Root = searchDir
		cfg = baseConfig
	default:
		cfg = Default()
		cfg.Project.Root = searchDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfigs combines a base config with a project config: the project
// wins on scalar fields (already copied wholesale), but glob lists from
// both are unioned so a user's global excludes still apply per-project.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	merged.Watch.ExcludeGlobs = unionStrings(base.Watch.ExcludeGlobs, project.Watch.ExcludeGlobs)
	if len(project.Watch.IncludeGlobs) == 0 {
		merged.Watch.IncludeGlobs = base.Watch.IncludeGlobs
	}

	return &merged
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
