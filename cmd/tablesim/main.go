// Command tablesim runs a discrete-event simulation of users contending
// for replicated data tables.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath    string
	duration      float64
	seed          int64
	outputName    string
	monitorPort   int
	noMonitor     bool
	openDashboard bool
	logEvents     bool
)

var rootCmd = &cobra.Command{
	Use:   "tablesim",
	Short: "Simulate users contending for replicated data tables",
	Long: `tablesim runs a discrete-event simulation of independent users ` +
		`issuing reads and writes to a set of shared tables. Each table ` +
		`serves multiple readers at a time or a single writer, in strict ` +
		`first-come-first-served order. The run statistics are stored in ` +
		`a SQLite database for offline analysis.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"path to the experiment configuration file")
	rootCmd.Flags().Float64VarP(&duration, "duration", "d", -1,
		"simulated duration in seconds, overrides the configuration")
	rootCmd.Flags().Int64VarP(&seed, "seed", "s", -1,
		"random seed, overrides the configuration")
	rootCmd.Flags().StringVarP(&outputName, "output", "o", "",
		"name of the output database, without extension")
	rootCmd.Flags().IntVar(&monitorPort, "monitor-port", 0,
		"port for the monitoring server")
	rootCmd.Flags().BoolVar(&noMonitor, "no-monitor", false,
		"disable the monitoring server")
	rootCmd.Flags().BoolVar(&openDashboard, "open-dashboard", false,
		"open the monitoring URL in the default browser")
	rootCmd.Flags().BoolVar(&logEvents, "log-events", false,
		"log every dispatched event")

	_ = rootCmd.MarkFlagRequired("config")
}

func main() {
	// A .env file can carry defaults such as TABLESIM_OUTPUT and
	// TABLESIM_MONITOR_PORT.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
