package main

import (
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "istasyon",
		Short:         "Akaryakıt istasyonu vardiya ve mutabakat servisi",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newBootstrapCommand())
	return cmd
}
