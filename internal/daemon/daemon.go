// Package daemon runs the minegate HTTP service: the registration endpoint,
// the reachability probe, and the read-only registry and audit views.
package daemon

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minegate/minegate/internal/audit"
	"github.com/minegate/minegate/internal/config"
	"github.com/minegate/minegate/internal/descriptor"
	"github.com/minegate/minegate/internal/propagate"
	"github.com/minegate/minegate/internal/registry"
	"github.com/minegate/minegate/internal/service"
	"github.com/minegate/minegate/internal/vcs"
)

type Daemon struct {
	addr     string
	listener net.Listener
	server   *http.Server
	svc      *service.Service
	watcher  *registry.Watcher
	journal  *audit.Journal

	// Stats
	startTime time.Time
}

// New assembles a daemon from configuration.
func New(cfg config.Config) (*Daemon, error) {
	store, err := registry.NewStore(cfg.ProjectsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize projects store: %w", err)
	}

	client := propagate.New(cfg.Downstream.URL, cfg.Downstream.Timeout)

	svc := service.New(store, client, descriptor.Defaults{ESURL: cfg.Elasticsearch.URL})

	var journal *audit.Journal
	if cfg.AuditDB != "" {
		journal, err = audit.Open(cfg.AuditDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit journal: %w", err)
		}
		svc.WithJournal(journal)
	}

	if cfg.GitCommit {
		committer, err := vcs.NewCommitter(cfg.ProjectsFile)
		if err != nil {
			if journal != nil {
				journal.Close()
			}
			return nil, fmt.Errorf("failed to initialize settings repository: %w", err)
		}
		svc.WithCommitter(committer)
	}

	watcher, err := registry.NewWatcher(cfg.ProjectsFile)
	if err != nil {
		// The watcher is observability only; run without it
		log.Printf("[WARN] projects file watcher unavailable: %v", err)
		watcher = nil
	}

	return &Daemon{
		addr:      cfg.ListenAddr,
		svc:       svc,
		watcher:   watcher,
		journal:   journal,
		startTime: time.Now().UTC(),
	}, nil
}

// Start serves until SIGTERM/SIGINT or a fatal server error.
func (d *Daemon) Start() error {
	listener, err := net.Listen("tcp", d.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.addr, err)
	}
	d.listener = listener

	mux := http.NewServeMux()
	d.setupRoutes(mux)

	d.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return context.Background() },
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if d.watcher != nil {
		go d.watcher.Run(ctx)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("[INFO] minegate daemon listening on %s", listener.Addr())
		serverErr <- d.server.Serve(listener)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("[INFO] received signal %v, shutting down", sig)
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			log.Printf("[ERROR] server error: %v", err)
		}
	}

	d.shutdown()
	return nil
}

func (d *Daemon) shutdown() {
	if d.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.server.Shutdown(ctx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}

	if d.listener != nil {
		d.listener.Close()
	}

	if d.journal != nil {
		if err := d.journal.Close(); err != nil {
			log.Printf("[WARN] audit journal close error: %v", err)
		}
	}
}
