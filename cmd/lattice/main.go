package main

import (
	"fmt"
	"os"

	"github.com/cuemby/lattice/pkg/log"
	"github.com/spf13/cobra"
)

// Version is set via ldflags during build.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "lattice - an embedded ordered key-value store and relation engine",
	Long: `lattice stores ordered key-value pairs on top of bbolt and layers an
n-ary relation store on top, so tuples can be queried by any combination of
bound and free positions without a secondary index.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().String("db", "lattice.db", "path to the database file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(kvCmd)
	rootCmd.AddCommand(nstoreCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
