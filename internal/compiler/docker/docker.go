// Package docker implements compiler.Checker by running javac inside
// pre-warmed, network-less Docker containers.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/codemaster/internal/compiler"
)

// timeoutExitCode mirrors the exit status of coreutils timeout(1).
const timeoutExitCode = 124

// compileScript writes $SOURCE to /tmp/$FILE and compiles it. The source
// travels in the environment so no quoting of user code is needed.
const compileScript = `mkdir -p /tmp/src /tmp/out && printf '%s' "$SOURCE" > "/tmp/src/$FILE" && ` +
	`javac -proc:none -nowarn -Xlint:none -d /tmp/out "/tmp/src/$FILE" 2>&1`

var _ compiler.Checker = (*Checker)(nil)

// Checker compiles Java code in throwaway containers. Each container is
// used for exactly one compilation and then removed.
type Checker struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pool   *Pool
}

// New connects to the Docker daemon from the environment, pulls the image
// and starts the container pool.
func New(cfg Config, logger *slog.Logger) (*Checker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: creating client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker: daemon not reachable: %w", err)
	}

	logger.Info("ensuring compiler image is available", slog.String("image", cfg.Image))
	reader, err := cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker: pulling %s: %w", cfg.Image, err)
	}
	defer reader.Close()
	io.Copy(io.Discard, reader)
	logger.Info("compiler image is ready")

	c := &Checker{
		cli:    cli,
		config: cfg,
		logger: logger,
	}
	c.pool = NewPool(cli, cfg, logger)
	c.pool.Start()

	return c, nil
}

// Close stops the pool, removes idle containers and closes the client.
func (c *Checker) Close() error {
	c.pool.Stop()
	return c.cli.Close()
}

// Check compiles code and returns javac's error diagnostics.
func (c *Checker) Check(ctx context.Context, code string) ([]string, error) {
	start := time.Now()

	containerID, err := c.pool.GetContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("docker: getting container from pool: %w", err)
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			c.logger.Error("failed to remove container", slog.String("id", containerID), slog.String("error", err.Error()))
		}
	}()

	compileCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	fileName := compiler.SourceFileName(code)
	execResp, err := c.cli.ContainerExecCreate(compileCtx, containerID, container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Env:          []string{"SOURCE=" + code, "FILE=" + fileName},
		Cmd:          []string{"sh", "-c", compileScript},
	})
	if err != nil {
		return nil, fmt.Errorf("docker: creating exec: %w", err)
	}

	attachResp, err := c.cli.ContainerExecAttach(compileCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("docker: attaching to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	exitCode := 0
	select {
	case <-done:
		inspectResp, err := c.cli.ContainerExecInspect(ctx, execResp.ID)
		if err != nil {
			return nil, fmt.Errorf("docker: inspecting exec: %w", err)
		}
		exitCode = inspectResp.ExitCode
	case <-compileCtx.Done():
		exitCode = timeoutExitCode
	}

	c.logger.Debug("javac finished",
		slog.String("file", fileName),
		slog.Int("exit_code", exitCode),
		slog.Duration("duration", time.Since(start)),
	)

	if exitCode == timeoutExitCode {
		return []string{fmt.Sprintf("Compilation timed out after %s", c.config.Timeout)}, nil
	}
	return compiler.ParseDiagnostics(stdout.String()+stderr.String(), exitCode), nil
}
