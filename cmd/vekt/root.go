package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Khushiyant/vekt/internal/dcontext"
	"github.com/Khushiyant/vekt/version"
)

var (
	verbose     bool
	quiet       bool
	showVersion bool
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	RootCmd.Flags().BoolVar(&showVersion, "version", false, "show the version and exit")

	RootCmd.AddCommand(InitCmd)
	RootCmd.AddCommand(AddCmd)
	RootCmd.AddCommand(RestoreCmd)
	RootCmd.AddCommand(DiffCmd)
	RootCmd.AddCommand(RemoteCmd)
	RootCmd.AddCommand(PushCmd)
	RootCmd.AddCommand(PullCmd)
	RootCmd.AddCommand(StatusCmd)
	RootCmd.AddCommand(GCCmd)
}

// RootCmd is the main command for the vekt binary.
var RootCmd = &cobra.Command{
	Use:           "vekt",
	Short:         "`vekt` tracks safetensors model files as content-addressed blobs plus a diffable manifest",
	Long:          "`vekt` tracks safetensors model files as content-addressed blobs plus a diffable manifest",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logrus.InfoLevel
		switch {
		case verbose:
			level = logrus.DebugLevel
		case quiet:
			level = logrus.WarnLevel
		}
		logger := logrus.New()
		logger.SetLevel(level)
		dcontext.SetDefaultLogger(logger.WithField("component", "vekt"))
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			version.PrintVersion()
			return
		}
		// nolint:errcheck
		cmd.Usage()
	},
}
