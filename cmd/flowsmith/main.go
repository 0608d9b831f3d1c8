package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/flowsmith/flowsmith/pkg/events"
	"github.com/flowsmith/flowsmith/pkg/relay"
	"github.com/flowsmith/flowsmith/pkg/server"
	"github.com/flowsmith/flowsmith/pkg/settings"
	"github.com/flowsmith/flowsmith/pkg/tools"
)

var rootCmd = &cobra.Command{
	Use:   "flowsmith",
	Short: "AI workflow generation relay for n8n",
}

func newServeCommand() *cobra.Command {
	var port int
	var apiToken string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the generation relay HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; the environment itself may carry everything
			_ = godotenv.Load()
			setupLogging()

			st, err := settings.NewFromEnv()
			if err != nil {
				// missing credential is fatal before any stream opens
				return err
			}

			service := relay.NewService(st, tools.DefaultRegistry())

			router, err := events.NewEventRouter()
			if err != nil {
				return err
			}
			server.RegisterMonitorHandler(router)
			mirror := events.NewWatermillSink(router.Publisher, server.RelayTopic)

			options := []server.Option{server.WithEventMirror(mirror)}
			if apiToken != "" {
				options = append(options, server.WithAPIToken(apiToken))
			}
			srv := server.New(service, options...)

			httpServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, egCtx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return router.Run(egCtx)
			})
			eg.Go(func() error {
				<-router.Running()
				log.Info().Int("port", port).Str("model", st.Model).Msg("relay server listening")
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				<-egCtx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
				return router.Close()
			})

			if err := eg.Wait(); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP port to listen on")
	cmd.Flags().StringVar(&apiToken, "api-token", os.Getenv("FLOWSMITH_API_TOKEN"), "optional bearer token required on the generate endpoint")

	return cmd
}

func setupLogging() {
	level := zerolog.InfoLevel
	if raw := os.Getenv("FLOWSMITH_LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func main() {
	rootCmd.AddCommand(newServeCommand())
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("flowsmith failed")
	}
}
