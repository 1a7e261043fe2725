package cmd

import (
	"errors"
	"log"

	"github.com/josephlewis42/rsh/commands"
	"github.com/josephlewis42/rsh/core/config"
	"github.com/spf13/cobra"
)

var cfgPath string

func loadConfig() (*config.Configuration, error) {
	return config.Load(cfgPath)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rsh",
	Short: "Really simple shell",
	Long:  `An interactive shell with pipelines and job control.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "rsh: ", 0)
		configuration, err := config.LoadOrDefault(cfgPath, logger)
		if err != nil {
			return err
		}

		err = runShell(configuration, logger)
		if errors.Is(err, commands.ErrExit) {
			return nil
		}
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
}
