package main

import (
	"fmt"
	"os"

	"github.com/Southclaws/fault/fmsg"
	"github.com/spf13/cobra"

	"go-lyrica/debug"
)

var version = "dev"

var (
	debugPath  string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "go-lyrica",
	Short: "Play note sheets on the Sky instrument",
	Long: `go-lyrica reads a note sheet (JSON, .skysheet or MIDI) and plays it by
sending key presses to the game window. Run "go-lyrica panel" for the
interactive control panel or "go-lyrica play <sheet>" to play headless.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugPath == "" {
			return nil
		}
		if err := debug.Enable(debugPath); err != nil {
			return fmt.Errorf("debug log: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		debug.Disable()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&debugPath, "debug", "", "write a debug log to this file")
	rootCmd.PersistentFlags().Lookup("debug").NoOptDefVal = debug.DefaultPath()
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "settings file (default ~/.config/go-lyrica/settings.json)")

	rootCmd.AddCommand(playCmd, panelCmd, layoutsCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

// describe prefers the user-facing message attached with fmsg
func describe(err error) string {
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	return err.Error()
}
