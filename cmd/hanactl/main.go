package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	configFile string
	flagHost   string
	flagPort   int
	flagUser   string
	flagSchema string
	flagDebug  bool

	// Build information variables
	Version   = "dev"     // Default version for development
	GitCommit = "unknown" // Git commit hash
	BuildTime = "unknown" // Build timestamp
)

// printVersionInfo displays detailed version information
func printVersionInfo() {
	fmt.Printf("hanactl v%s\n", Version)
	fmt.Printf("Built: %s, from commit: %s\n", BuildTime, GitCommit)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hanactl",
	Short: "SAP HANA backend command line interface",
	Long: "A CLI for working with a SAP HANA database through the backend: check connectivity, " +
		"run statements, and inspect the schema catalog.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("version") != nil && cmd.Flags().Lookup("version").Changed {
			printVersionInfo()
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.ExpandEnv("$HOME/.hanactl/config.yaml"), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "Database host")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "Database port")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "Database user")
	rootCmd.PersistentFlags().StringVar(&flagSchema, "schema", "", "Schema to select after connecting")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log every executed statement")

	rootCmd.Flags().Bool("version", false, "Show version information and exit")

	setupCommands()
}

// setupCommands initializes all commands and their relationships
func setupCommands() {
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	Execute()
}
