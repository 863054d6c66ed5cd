package main

import (
	"fmt"
	"listkeeper/internal/di"
	"listkeeper/internal/structures"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	flags := new(structures.CliFlags)

	rootCmd := &cobra.Command{
		Use:           "listkeeper [-c config_file] [-d]",
		Short:         "Anime and manga list backup service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := di.InitApp(flags)
			if err != nil {
				return fmt.Errorf("unable to start: %w", err)
			}
			return app.Run()
		},
	}
	rootCmd.Flags().StringVarP(&flags.ConfigPath, "config", "c", "config.yaml", "path to the config file")
	rootCmd.Flags().BoolVarP(&flags.DebugMode, "debug", "d", false, "mirror logs to stdout")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
