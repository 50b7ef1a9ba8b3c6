package main

import (
	"context"
	"fmt"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"github.com/deppfellow/calculator-api/internal/handler"
	"github.com/deppfellow/calculator-api/internal/repository"
	"github.com/deppfellow/calculator-api/internal/router"
	"github.com/deppfellow/calculator-api/internal/server"
	"github.com/deppfellow/calculator-api/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and background workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			return serve(rt)
		},
	}
}

func serve(rt *runtime) error {
	log := rt.logger
	defer rt.loggerService.Shutdown()

	srv, err := server.New(rt.cfg, &log, rt.loggerService)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	repos := repository.NewRepositories(srv)

	services, err := service.NewService(srv, repos)
	if err != nil {
		return fmt.Errorf("could not create services: %w", err)
	}

	if err := srv.StartJobs(services.Calculator); err != nil {
		log.Error().Err(err).Msg("background jobs disabled")
	}

	h := handler.NewHandlers(srv, services)
	srv.SetupHTTPServer(router.NewRouter(srv, h))

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	timeout := time.Duration(rt.cfg.Server.ShutdownTimeout) * time.Second
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		timeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Info().Msg("shutting down server")
				return srv.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Info().Int("exit_code", exitCode).Msg("server exited")
	if exitCode != 0 {
		return fmt.Errorf("shutdown finished with exit code %d", exitCode)
	}
	return nil
}
