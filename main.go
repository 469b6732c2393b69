package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cert-lv/abusefinder/pdk"
)

var (
	// Holder all service's configuration
	config *Config

	// Instance of the global logger
	log zerolog.Logger

	// Current service's version
	version string

	// Command line flags
	cfgFile string
	format  string
	dryRun  bool

	// Log file to close on exit
	logFile io.Closer
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "abusefinder",
	Short: "Abuse contact finder agents",
	Long: `abusefinder runs the automation agents, which find abuse contacts
of the IP addresses and emit the results as events to the configured outputs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		/*
		 * Parse configuration file
		 */
		err := loadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("Can't load configuration: %s", err.Error())
		}

		/*
		 * Setup a global logger to the file or stdout
		 */
		logFile, err = setupLogger()
		if err != nil {
			return fmt.Errorf("Can't setup a logfile: %s", err.Error())
		}

		// Load service's version
		loadVersion()

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $CONFIG or ./abusefinder.yaml)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "json", "output format: json or table")

	checkCmd.Flags().BoolVar(&dryRun, "dry-run", false, "return events without publishing them")
	receiveCmd.Flags().BoolVar(&dryRun, "dry-run", false, "return events without publishing them")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(receiveCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(versionCmd)
}

/*
 * Setup outputs and agents of the predefined definitions
 */
func setup() error {
	err := setupOutputs()
	if err != nil {
		return fmt.Errorf("Can't load outputs: %s", err.Error())
	}

	err = setupAgents()
	if err != nil {
		return fmt.Errorf("Can't load agents: %s", err.Error())
	}

	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := setup()
		if err != nil {
			return err
		}
		defer stopAll()

		mux := http.NewServeMux()
		mux.HandleFunc("/api", apiHandler)
		mux.HandleFunc("/health", healthHandler)
		mux.HandleFunc("/stats", statsHandler)
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              config.Server.Host + ":" + config.Server.Port,
			Handler:           mux,
			ReadTimeout:       time.Duration(config.Server.ReadTimeout) * time.Second,
			ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderTimeout) * time.Second,
		}

		// Stop gracefully on a signal
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			err := server.Shutdown(shutdownCtx)
			if err != nil {
				log.Error().Msg("Can't shutdown the server: " + err.Error())
			}
		}()

		log.Info().Msgf("Abusefinder v%s. Starting the service listening on %s", version, server.Addr)

		if config.Server.CertFile != "" && config.Server.KeyFile != "" {
			err = server.ListenAndServeTLS(config.Server.CertFile, config.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("Can't listen: %s", err.Error())
		}

		log.Info().Msg("Service stopped")
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <agent>",
	Short: "Run the agent once without incoming events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd.OutOrStdout(), args[0], nil)
	},
}

var receiveCmd = &cobra.Command{
	Use:   "receive <agent> [file]",
	Short: "Pass events to the agent, from the file or stdin",
	Long: `Pass events to the agent. Events are a JSON object or a list of objects,
read from the given file or stdin when the file is missing or "-".`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error

		if len(args) == 1 || args[1] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[1])
		}
		if err != nil {
			return fmt.Errorf("Can't read events: %s", err.Error())
		}

		events, err := pdk.ParseEvents(data)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			return fmt.Errorf("No events given")
		}

		return runCommand(cmd.OutOrStdout(), args[0], events)
	},
}

/*
 * Run the agent from the command line and print created events
 */
func runCommand(w io.Writer, name string, events []*pdk.Event) error {
	err := setup()
	if err != nil {
		return err
	}
	defer stopAll()

	a, ok := agents[name]
	if !ok {
		return fmt.Errorf("Unknown agent '%s'", name)
	}

	response := &APIresponse{
		Events: []*pdk.Event{},
	}

	created, err := a.run(context.Background(), events, dryRun)
	if created != nil {
		response.Events = created
	}
	if err != nil {
		response.Error = err.Error()
	}

	fmt.Fprintln(w, response.format(format))

	return err
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List configured agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := setup()
		if err != nil {
			return err
		}
		defer stopAll()

		statuses, _ := agentStatuses()

		output, err := formatTo(statuses, format)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), output)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	// No configuration is needed
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadVersion()
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}
