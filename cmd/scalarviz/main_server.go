package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/scalarviz/internal/engine"
	"github.com/standardbeagle/scalarviz/internal/server"
)

func execCommand(name string, args ...string) *exec.Cmd {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	return cmd
}

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Run the engine and block, serving the command set over HTTP",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}

		eng, err := engine.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}

		srv := server.New(cfg, eng)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		fmt.Printf("scalarviz server listening on %s\n", cfg.Server.ListenAddr)
		fmt.Printf("Root: %s\n", cfg.Project.Root)
		fmt.Println("Use 'scalarviz shutdown' to stop the server")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			fmt.Printf("\nreceived signal %v, shutting down...\n", sig)
		case <-func() chan struct{} {
			ch := make(chan struct{})
			go func() {
				srv.Wait()
				close(ch)
			}()
			return ch
		}():
			fmt.Println("shutdown requested")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		fmt.Println("server shut down cleanly")
		return nil
	},
}

var shutdownCommand = &cli.Command{
	Name:  "shutdown",
	Usage: "Ask a running server to stop",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfigWithOverrides(c)
		if err != nil {
			return err
		}
		client := server.NewClient(cfg.Server.ListenAddr)
		if !client.IsServerRunning() {
			return fmt.Errorf("no server running at %s", cfg.Server.ListenAddr)
		}
		if err := client.Shutdown(); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}

		time.Sleep(500 * time.Millisecond)
		if client.IsServerRunning() {
			return fmt.Errorf("server did not shut down")
		}
		fmt.Println("server shut down successfully")
		return nil
	},
}
