// Command docflow runs the document approval demo: the event-sourced engine
// with an in-memory journal, a SQLite read model and the HTTP surface.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/kyuff/docflow"
	"github.com/kyuff/docflow/approval"
	"github.com/kyuff/docflow/document"
	"github.com/kyuff/docflow/document/sqlite"
	"github.com/kyuff/docflow/httpapi"
	"github.com/kyuff/docflow/storage/inmemory"
)

type config struct {
	Addr        string        `env:"DOCFLOW_ADDR" envDefault:":8080"`
	DBPath      string        `env:"DOCFLOW_DB" envDefault:"docflow.db"`
	LogLevel    string        `env:"DOCFLOW_LOG_LEVEL" envDefault:"info"`
	RateLimit   int           `env:"DOCFLOW_RATE_LIMIT" envDefault:"100"`
	WaitTimeout time.Duration `env:"DOCFLOW_WAIT_TIMEOUT" envDefault:"5s"`
}

func main() {
	log := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "docflow").
		Logger()

	err := run(log)
	if err != nil {
		log.Fatal().Err(err).Msg("docflow failed")
	}
}

func run(log zerolog.Logger) error {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return err
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal := inmemory.New()

	store := docflow.New(journal, docflow.WithZerolog(log))
	defer func() { _ = store.Close() }()

	err = store.RegisterAggregate(document.AggregateType, document.Machine{}, document.Events()...)
	if err != nil {
		return err
	}

	err = store.RegisterSaga(approval.Config())
	if err != nil {
		return err
	}

	docs, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = docs.Close() }()

	projector := docflow.NewProjector(journal, docs, docflow.WithZerolog(log))
	go func() {
		err := projector.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("projector stopped")
			stop()
		}
	}()

	api := httpapi.NewServer(store, docs, log, cfg.WaitTimeout, cfg.RateLimit)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}
