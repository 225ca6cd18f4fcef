package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/oaiiae/huma-phonebook/cli/api"
	"github.com/oaiiae/huma-phonebook/cli/logger"
	"github.com/oaiiae/huma-phonebook/datastores"
	"github.com/oaiiae/huma-phonebook/services"
)

const title = "Phonebook API"

// Set with -ldflags "-X main.version=...".
var (
	version  = "dev"
	revision = ""
	created  = ""
)

// Options for the CLI. Pass `--port` or set the `SERVICE_PORT` env var.
type Options struct {
	api.ServerOptions
	api.RouterOptions
	api.StoreOptions
	logger.Options
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		logger := logger.New(&options.Options)
		srv := api.NewServer(&options.ServerOptions, logger)

		hooks.OnStart(func() {
			set := metrics.NewSet()
			store, err := api.NewStore(&options.StoreOptions, set)
			if err != nil {
				logger.Error("could not open record store", "err", err)
				os.Exit(1)
			}
			defer store.Close()

			ids := datastores.UUIDs{}
			contacts := services.NewContacts(store, ids)
			calls := services.NewCalls(store, ids)
			err = api.SeedContacts(context.Background(), &options.StoreOptions, contacts, logger)
			if err != nil {
				logger.Error("could not seed contacts", "err", err)
			}

			// Handler is set once the store is open; Shutdown never reads it.
			srv.Handler = api.NewRouter(&options.RouterOptions,
				title, version, revision, created,
				logger, store, contacts, calls, set,
			)
			logger.Info("listening", "addr", srv.Addr, "store", options.StoreDriver)
			err = srv.ListenAndServe()
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("failed to listen and serve", "err", err)
			} else {
				logger.Info("server closed")
			}
		})
		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), options.ShutdownTimeout)
			defer cancel()
			err := srv.Shutdown(ctx)
			if err != nil {
				logger.Warn("could not shutdown the server", "err", err)
			}
		})
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var doc []byte
			store := datastores.NewInmem()
			ids := datastores.UUIDs{}
			api.NewRouter(&api.RouterOptions{EndpointsPrefix: "/api"},
				title, version, revision, created,
				logger.New(&logger.Options{LogFile: os.DevNull}),
				store, services.NewContacts(store, ids), services.NewCalls(store, ids), metrics.NewSet(),
				func(a huma.API) { doc, _ = a.OpenAPI().YAML() },
			)
			_, err := fmt.Fprint(cmd.OutOrStdout(), string(doc))
			return err
		},
	})

	cli.Run()
}
