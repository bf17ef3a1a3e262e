package main

import (
	"errors"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// errInvalidSubmission makes the process exit with status 1 without printing
// the error again; the verdict has already been written.
var errInvalidSubmission = errors.New("submission is invalid")

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "maintenance",
		Short:         "Equipment maintenance validation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "optional YAML config file")

	root.AddCommand(newServeCmd(&configFile), newCheckCmd(&configFile))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalidSubmission) {
			log.WithError(err).Error("Command failed")
		}
		os.Exit(1)
	}
}
