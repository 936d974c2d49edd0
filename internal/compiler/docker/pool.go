package docker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

const (
	refillInterval = 100 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// Pool keeps PoolSize idle JDK containers running so a compilation does
// not pay the container start-up cost.
type Pool struct {
	cli        *client.Client
	config     Config
	logger     *slog.Logger
	containers chan string
	done       chan struct{}
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

func NewPool(cli *client.Client, cfg Config, logger *slog.Logger) *Pool {
	if cfg.PoolSize < 1 {
		cfg.PoolSize = 1
	}
	return &Pool{
		cli:        cli,
		config:     cfg,
		logger:     logger,
		containers: make(chan string, cfg.PoolSize),
		done:       make(chan struct{}),
	}
}

// Start launches the background refill loop. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting compiler container pool", slog.Int("pool_size", p.config.PoolSize))
		p.wg.Add(1)
		go p.refill()
	})
}

// Stop ends the refill loop and removes every idle container.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("shutting down compiler container pool")
		close(p.done)
		p.wg.Wait()

		for {
			select {
			case id := <-p.containers:
				p.removeContainer(id)
			default:
				return
			}
		}
	})
}

// GetContainer hands out an idle container, blocking until one is ready or
// ctx is done. The caller owns the container afterwards and must remove it.
func (p *Pool) GetContainer(ctx context.Context) (string, error) {
	select {
	case id := <-p.containers:
		return id, nil
	case <-p.done:
		return "", fmt.Errorf("docker: pool stopped")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refill tops the pool up. Creation failures back off exponentially up to
// maxBackoff so an unhealthy daemon is not hammered.
func (p *Pool) refill() {
	defer p.wg.Done()

	ticker := time.NewTicker(refillInterval)
	defer ticker.Stop()

	backoff := time.Second
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
		}

		if len(p.containers) == cap(p.containers) {
			continue
		}

		id, err := p.createContainer()
		if err != nil {
			p.logger.Error("failed to create pre-warmed container",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", backoff),
			)
			select {
			case <-p.done:
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		select {
		case p.containers <- id:
		case <-p.done:
			p.removeContainer(id)
			return
		}
	}
}

// createContainer starts an idle container with no network, a read-only
// root filesystem and a writable tmpfs at /tmp for sources and classes.
func (p *Pool) createContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hostConfig := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:   p.config.MemoryLimit,
			NanoCPUs: int64(p.config.CPULimit * 1e9),
		},
		ReadonlyRootfs: true,
		Tmpfs: map[string]string{
			"/tmp": "rw,exec,size=" + p.config.TmpfsSize,
		},
	}

	resp, err := p.cli.ContainerCreate(ctx, &container.Config{
		Image: p.config.Image,
		Cmd:   []string{"sleep", "infinity"},
		User:  "nobody",
		// The JVM writes its perf data and class cache under the user's
		// home; point everything at the tmpfs.
		Env: []string{"HOME=/tmp", "JAVA_TOOL_OPTIONS=-XX:-UsePerfData -Xshare:off"},
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("docker: ContainerCreate: %w", err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.removeContainer(resp.ID)
		return "", fmt.Errorf("docker: ContainerStart: %w", err)
	}

	return resp.ID, nil
}

func (p *Pool) removeContainer(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = p.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}
