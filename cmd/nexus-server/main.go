package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thejerf/suture/v4"

	"github.com/spektr-org/nexus/config"
	"github.com/spektr-org/nexus/datasource"
	"github.com/spektr-org/nexus/logging"
	"github.com/spektr-org/nexus/server"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $NEXUS_CONFIG or nexus.yaml)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("nexus-server %s\n", version)
		return
	}

	if err := run(*configPath); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("nexus-server exited")
		os.Exit(1)
	}
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := datasource.NewRegistry(cfg.Query.Settings())
	defer func() {
		if err := registry.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close datasources")
		}
	}()
	for _, ds := range cfg.Datasources {
		// An unreachable datasource is logged and skipped; the rest still serve.
		if err := registry.Add(ctx, ds); err != nil {
			logging.Error().Err(err).Str("datasource", ds.ID).Msg("failed to register datasource")
		}
	}

	srv := server.New(cfg.Server, registry)
	sup := newSupervisor(cfg.Server)
	sup.Add(server.NewService(srv.HTTPServer(), cfg.Server.ShutdownTimeout))

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Strs("datasources", registry.IDs()).
		Str("version", version).
		Msg("starting nexus-server")
	return sup.Serve(ctx)
}

func newSupervisor(cfg config.ServerConfig) *suture.Supervisor {
	return suture.New("nexus", suture.Spec{
		EventHook:        logEvent,
		FailureThreshold: 5,
		FailureDecay:     30,
		Timeout:          cfg.ShutdownTimeout,
	})
}

// logEvent forwards supervisor events to the global logger.
func logEvent(e suture.Event) {
	ev := logging.Warn()
	if e.Type() == suture.EventTypeBackoff || e.Type() == suture.EventTypeServicePanic {
		ev = logging.Error()
	}
	ev.Fields(e.Map()).Str("event", eventName(e.Type())).Msg(e.String())
}

func eventName(t suture.EventType) string {
	switch t {
	case suture.EventTypeStopTimeout:
		return "stop_timeout"
	case suture.EventTypeServicePanic:
		return "service_panic"
	case suture.EventTypeServiceTerminate:
		return "service_terminate"
	case suture.EventTypeBackoff:
		return "backoff"
	case suture.EventTypeResume:
		return "resume"
	}
	return "unknown"
}
