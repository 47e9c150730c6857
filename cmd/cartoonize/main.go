// cartoonize renders the five cartoon styles of a picture from the command line.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:     "cartoonize",
	Short:   "Turn a photo into five cartoon renditions",
	Version: version,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		logrus.SetOutput(os.Stderr)
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.AddCommand(newConvertCmd(), newStylesCmd())
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
