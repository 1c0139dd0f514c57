package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"

	"github.com/godeepar/geoxchange/config"
)

var version = "0.1.0"

// path to the YAML configuration (flag --config)
var configPath string

// loaded by the root command before any subcommand runs
var cfg = config.Default()

func main() {
	if err := execRootCmd(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func execRootCmd(args []string) error {
	rootCmd := newRootCmd(
		newSendCmd(),
		newReceiveCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	rootCmd.SetArgs(args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd(cmds ...*cobra.Command) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "geoxchange",
		Short:         "Converts GIS layers to and from the interchange object graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				c, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = c
			}
			level, err := cfg.LogLevel()
			if err != nil {
				return err
			}
			if ok, _ := cmd.Flags().GetBool("trace"); ok {
				level = logger.LogLevelTrace
			} else if ok, _ := cmd.Flags().GetBool("verbose"); ok {
				level = logger.LogLevelVerbose
			}
			logger.SetLogLevel(level)
			logger.Verbose("configuration loaded")
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().Bool("trace", false, "Enable extremely verbose output")
	rootCmd.AddCommand(cmds...)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the current version",
		Aliases: []string{"ver"},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s version %s\n", cmd.Root().Name(), version)
		},
	}
}
