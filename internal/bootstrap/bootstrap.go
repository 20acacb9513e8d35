package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"fungible-token-demo/internal/app"
	"fungible-token-demo/internal/config"
	"fungible-token-demo/internal/db"
	"fungible-token-demo/internal/flowclient"
	"fungible-token-demo/internal/flowtx"
	"fungible-token-demo/internal/graph"
	"fungible-token-demo/internal/metrics"
	"fungible-token-demo/internal/session"
	"fungible-token-demo/pkg/server"
)

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg.Level = level
	return zcfg.Build()
}

// Env is a fully wired application.
type Env struct {
	Config   *config.Config
	Log      *zap.Logger
	Service  *app.Service
	Registry *prometheus.Registry

	client *flowclient.Client
}

// Build reads flow.json, connects to the access node and opens the journal.
func Build(cfg *config.Config, log *zap.Logger) (*Env, error) {
	flowFile, err := config.LoadFlowFile(cfg.FlowConfigPath)
	if err != nil {
		return nil, err
	}
	aliases, err := flowFile.ImportAliases(cfg.Network)
	if err != nil {
		return nil, err
	}
	keyring, err := config.NewKeyring(flowFile, log)
	if err != nil {
		return nil, err
	}

	host := cfg.AccessHost
	if host == "" {
		if host, err = flowFile.Host(cfg.Network); err != nil {
			return nil, err
		}
	}

	var signer *flowtx.Identity
	if cfg.Signer != "" {
		if signer, err = keyring.Identity(cfg.Signer); err != nil {
			log.Warn("server signer unavailable, script operations disabled", zap.Error(err))
			signer = nil
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client, err := flowclient.Dial(host, log, metrics.NewRemote(reg))
	if err != nil {
		return nil, err
	}

	var journal app.Journal = app.NewMemoryJournal()
	if err := db.InitDB(cfg.DatabaseURL); err == nil {
		journal = db.NewJournal(db.DB)
		log.Info("transaction journal stored in postgres")
	} else if !errors.Is(err, db.ErrNotConfigured) {
		client.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	svc := app.NewService(app.Options{
		Builder: flowtx.NewBuilder(aliases, cfg.ComputeLimit),
		Invoker: client,
		Journal: journal,
		Keyring: keyring,
		Server:  signer,
		Logger:  log,
	})

	return &Env{Config: cfg, Log: log, Service: svc, Registry: reg, client: client}, nil
}

func (e *Env) Close() error {
	dbErr := db.CloseDB()
	return errors.Join(e.client.Close(), dbErr)
}

// Serve runs the HTTP server until ctx is done.
func (e *Env) Serve(ctx context.Context) error {
	resolver := &graph.Resolver{Service: e.Service, Sessions: session.NewRegistry()}
	srv := server.New(":"+e.Config.Port, resolver, e.Registry, e.Log)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		e.Log.Info("server shutting down")
		return srv.Stop(shutdownCtx)
	}
}
