package commands

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	envFile    string
}

// NewRootCmd creates the intake root command.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "intake",
		Short: "Investment incentive intake assistant",
		Long: `intake runs the investment incentive chat assistant.

It collects the sector, province, district and organised industrial zone
status of a planned investment over a few chat turns, then hands the
conversation to the retrieval-backed generation service.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.envFile == "" {
				return nil
			}
			if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before the config")

	cmd.AddCommand(NewServeCmd(flags))
	cmd.AddCommand(NewChatCmd(flags))
	cmd.AddCommand(NewDocsCmd(flags))
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}
