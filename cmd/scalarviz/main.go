package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/scalarviz/internal/config"
	"github.com/standardbeagle/scalarviz/internal/server"
	"github.com/standardbeagle/scalarviz/internal/version"
	"github.com/standardbeagle/scalarviz/pkg/pathutil"
)

// loadConfigWithOverrides loads the project's .scalarviz.kdl (searched
// from --root or the working directory) and applies CLI overrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	cfg, err := config.LoadWithRoot("", root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if root != "" {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
		}
		cfg.Project.Root = absRoot
	}
	if listen := c.String("listen"); listen != "" {
		cfg.Server.ListenAddr = listen
	}
	return cfg, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	app := &cli.App{
		Name:                   "scalarviz",
		Usage:                  "Ingest and query scalar time series from long-running training jobs",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory holding .scalarviz.kdl (overrides config search)",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Override the server's listen address (host:port)",
			},
		},
		Commands: []*cli.Command{
			importCommand,
			allGraphCommand,
			scalarDataCommand,
			mergeCommand,
			tokenParamSetCommand,
			parseStateCommand,
			incrementalTagCommand,
			addFilesCommand,
			pingCommand,
			serveCommand,
			shutdownCommand,
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

var importCommand = &cli.Command{
	Name:      "import",
	Usage:     "Register one or more log files or directories for parsing",
	ArgsUsage: "<path> [path...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "append", Usage: "Append to a previously started project instead of starting a new one"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return errors.New("usage: scalarviz import <path> [path...]")
		}
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}
		client, err := ensureServerRunning(cfg)
		if err != nil {
			return err
		}
		project, err := client.ImportFile(c.Args().Slice(), c.Bool("append"))
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Println(project)
		return nil
	},
}

var allGraphCommand = &cli.Command{
	Name:  "all-graph",
	Usage: "List every known tag with its contributing files",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}
		client, err := ensureServerRunning(cfg)
		if err != nil {
			return err
		}
		graph, err := client.GetAllGraph()
		if err != nil {
			return err
		}
		relative := make(map[string][]string, len(graph))
		for tag, files := range graph {
			relative[tag] = pathutil.ToRelativeList(files, cfg.Project.Root)
		}
		return printJSON(relative)
	},
}

var scalarDataCommand = &cli.Command{
	Name:      "scalar-data",
	Usage:     "Query the scalar points for one tag/file pair",
	ArgsUsage: "<tag> <file>",
	Flags: []cli.Flag{
		&cli.Uint64Flag{Name: "start", Usage: "First step to return (inclusive)"},
		&cli.Uint64Flag{Name: "end", Usage: "Last step to return (inclusive, 0 means unbounded)"},
		&cli.StringFlag{Name: "line-type", Value: "normal", Usage: "normal, sample, smoothing, token"},
		&cli.StringFlag{Name: "algorithm", Value: "smoothing", Usage: "Smoothing algorithm for line-type smoothing: smoothing, windowMedian, windowTopx"},
		&cli.Float64Flag{Name: "weight", Usage: "Smoothing weight, only used when line-type needs one"},
		&cli.IntFlag{Name: "window", Usage: "windowMedian/windowTopx smoothing window size, only used when line-type needs one"},
		&cli.Float64Flag{Name: "top", Usage: "windowTopx fraction in (0,1], only used when line-type needs one"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 {
			return errors.New("usage: scalarviz scalar-data <tag> <file>")
		}
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}
		client, err := ensureServerRunning(cfg)
		if err != nil {
			return err
		}
		end := c.Uint64("end")
		if end == 0 {
			end = 1<<63 - 1 // steps are int64, so this covers every step
		}
		req := server.GetScalarDataRequest{
			GraphList: []server.GraphQueryRequest{{
				Tag:   c.Args().Get(0),
				File:  c.Args().Get(1),
				Start: c.Uint64("start"),
				End:   end,
				GraphConfig: []server.GraphConfigEntry{{
					Type:      c.String("line-type"),
					Enable:    true,
					Algorithm: c.String("algorithm"),
					Weight:    c.Float64("weight"),
					Window:    c.Int("window"),
					Top:       c.Float64("top"),
				}},
			}},
		}
		results, err := client.GetScalarData(req)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return nil
		}
		return printJSON(results[0])
	},
}

var mergeCommand = &cli.Command{
	Name:      "merge",
	Usage:     "Create or remove a virtual file combining several logs into one series",
	ArgsUsage: "<merge|unset> <name> [file...]",
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 {
			return errors.New("usage: scalarviz merge <merge|unset> <name> [file...]")
		}
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}
		client, err := ensureServerRunning(cfg)
		if err != nil {
			return err
		}
		action := c.Args().Get(0)
		name := c.Args().Get(1)
		fileList := c.Args().Slice()[2:]
		body, err := client.FileMerge(action, name, fileList)
		if err != nil {
			return err
		}
		return printJSON(body)
	},
}

var tokenParamSetCommand = &cli.Command{
	Name:      "token-param-set",
	Usage:     "Set per-file token normalization parameters",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.Float64Flag{Name: "global-batch-size", Usage: "Global batch size for step-to-token conversion"},
		&cli.Float64Flag{Name: "seq-length", Usage: "Sequence length for step-to-token conversion"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return errors.New("usage: scalarviz token-param-set <file> --global-batch-size N --seq-length N")
		}
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}
		client, err := ensureServerRunning(cfg)
		if err != nil {
			return err
		}
		results, err := client.TokenParamSet([]server.TokenParamEntry{{
			File:            c.Args().First(),
			GlobalBatchSize: c.Float64("global-batch-size"),
			SeqLength:       c.Float64("seq-length"),
		}})
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

var parseStateCommand = &cli.Command{
	Name:      "parse-state",
	Usage:     "Show parse progress for one or more projects",
	ArgsUsage: "[project...]",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}
		client, err := ensureServerRunning(cfg)
		if err != nil {
			return err
		}
		states, err := client.GetParseState(c.Args().Slice())
		if err != nil {
			return err
		}
		return printJSON(states)
	},
}

var incrementalTagCommand = &cli.Command{
	Name:  "incremental-tag",
	Usage: "Drain the set of tags that gained contributing files since the last call",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}
		client, err := ensureServerRunning(cfg)
		if err != nil {
			return err
		}
		entries, err := client.GetIncrementalTag()
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var addFilesCommand = &cli.Command{
	Name:  "add-files",
	Usage: "Drain the watcher's newly observed files, grouped by directory",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}
		client, err := ensureServerRunning(cfg)
		if err != nil {
			return err
		}
		added, err := client.GetAddFiles()
		if err != nil {
			return err
		}
		return printJSON(added)
	},
}

var pingCommand = &cli.Command{
	Name:  "ping",
	Usage: "Check whether the server is running and report its uptime",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}
		client := server.NewClient(cfg.Server.ListenAddr)
		body, err := client.Ping()
		if err != nil {
			return fmt.Errorf("no server running at %s: %w", cfg.Server.ListenAddr, err)
		}
		fmt.Printf("server up, uptime %.1fs\n", body.UptimeSeconds)
		return nil
	},
}

// ensureServerRunning checks if a server is already listening on cfg's
// address, starting one as a detached background process if not.
func ensureServerRunning(cfg *config.Config) (*server.Client, error) {
	client := server.NewClient(cfg.Server.ListenAddr)
	if client.IsServerRunning() {
		return client, nil
	}

	fmt.Fprintln(os.Stderr, "scalarviz server not running, starting in background...")

	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"serve", "--listen", cfg.Server.ListenAddr}
	if cfg.Project.Root != "" && cfg.Project.Root != "." {
		args = append([]string{"--root", cfg.Project.Root}, args...)
	}
	cmd := execCommand(executable, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start server: %w", err)
	}
	if err := cmd.Process.Release(); err != nil {
		return nil, fmt.Errorf("failed to detach server process: %w", err)
	}

	fmt.Fprintln(os.Stderr, "waiting for server to become ready...")
	if err := client.WaitForReady(30 * time.Second); err != nil {
		return nil, fmt.Errorf("server did not become ready: %w", err)
	}
	return client, nil
}

