package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-mapwizard/internal/api"
	"github.com/joeblew999/plat-mapwizard/internal/logger"
	"github.com/joeblew999/plat-mapwizard/internal/server"
	"github.com/joeblew999/plat-mapwizard/internal/wizard"
)

// Options defines all CLI flags and env vars for the wizard server.
// Flags: --host, --port, --backend-url, --config, --env, --log-level
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_BACKEND_URL, ...
type Options struct {
	Host       string `doc:"Host to bind to" default:"0.0.0.0"`
	Port       int    `doc:"Port to listen on" short:"p" default:"8087"`
	BackendURL string `doc:"Rendering service base URL (overrides the config file)"`
	Config     string `doc:"Path to a YAML wizard configuration file"`
	Env        string `doc:"Environment: development or production" default:"development"`
	LogLevel   string `doc:"Log level: debug, info, warn or error"`
}

func newServer(opts *Options) (*server.Server, error) {
	return server.New(server.Config{
		Host:       opts.Host,
		Port:       fmt.Sprintf("%d", opts.Port),
		BackendURL: opts.BackendURL,
		ConfigPath: opts.Config,
		Log:        logger.New(opts.Env, opts.LogLevel),
	})
}

func mustServer(opts *Options) *server.Server {
	srv, err := newServer(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return srv
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var httpSrv *http.Server
		var srv *server.Server

		hooks.OnStart(func() {
			srv = mustServer(opts)
			srv.Start(context.Background())

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-mapwizard server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Backend: %s\n", srv.Wizard().BackendURL)
			fmt.Println()
			fmt.Printf("  Wizard:  %s/wizard\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			httpSrv = &http.Server{Addr: addr, Handler: srv}
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			if httpSrv == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(ctx)
			srv.Close()
		})
	})

	cli.Root().Use = "mapwizard"
	cli.Root().Short = "Map creation wizard for a MapOSMatic-style rendering service"
	cli.Root().Version = api.Version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := mustServer(opts)
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// languages subcommand: print the language list, ordered for a country
	languagesCmd := &cobra.Command{
		Use:   "languages [country]",
		Short: "Print the map languages, ordered for a country code when given",
		Args:  cobra.MaximumNArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := mustServer(opts)
			country := ""
			if len(args) == 1 {
				country = args[0]
			}
			for _, l := range wizard.PartitionLanguages(srv.Wizard().Languages, country) {
				if l.Disabled {
					fmt.Println(l.Name)
					continue
				}
				fmt.Printf("%-14s %s\n", l.Code, l.Name)
			}
		}),
	}
	cli.Root().AddCommand(languagesCmd)

	cli.Run()
}
