package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

const kdlFileName = ".scalarviz.kdl"

// LoadKDL attempts to load configuration from a .scalarviz.kdl file in dir.
func LoadKDL(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, kdlFileName)

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", kdlFileName, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}

	if cfg.Project.Root == "" {
		absRoot, err := filepath.Abs(dir)
		if err == nil {
			cfg.Project.Root = absRoot
		} else {
			cfg.Project.Root = dir
		}
	} else if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(dir, cfg.Project.Root))
	}

	return cfg, nil
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", kdlFileName, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Watch.Enabled = b
					}
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				case "include":
					cfg.Watch.IncludeGlobs = collectStringArgs(cn)
				case "exclude":
					cfg.Watch.ExcludeGlobs = collectStringArgs(cn)
				}
			}
		case "parse":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_goroutines":
					if v, ok := firstIntArg(cn); ok {
						cfg.Parse.MaxGoroutines = v
					}
				case "max_queue_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Parse.MaxQueueDepth = v
					}
				case "timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Parse.TimeoutSec = v
					}
				case "max_memory_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Parse.MaxMemoryMB = v
					}
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.Parse.MaxMemoryMB = int(sz / (1024 * 1024))
						}
					}
				}
			}
		case "query":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_points":
					if v, ok := firstIntArg(cn); ok {
						cfg.Query.MaxPoints = v
					}
				case "default_sample_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Query.DefaultSampleSize = v
					}
				}
			}
		case "server":
			for _, cn := range n.Children {
				if nodeName(cn) == "listen_addr" {
					if s, ok := firstStringArg(cn); ok {
						cfg.Server.ListenAddr = s
					}
				}
			}
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
