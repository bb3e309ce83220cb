package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"go-lyrica/config"
	"go-lyrica/song"
)

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List keyboard layouts and show the active key mapping",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store().Load()
		if err != nil {
			return err
		}
		for _, name := range config.ListLayouts(config.LayoutsDir) {
			mark := " "
			if name == s.KeyboardLayout {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, name)
		}
		fmt.Println()
		for i := 0; i < song.NumKeys; i++ {
			id := "Key" + strconv.Itoa(i)
			fmt.Printf("  %-5s %s\n", id, s.KeyMapping[id])
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the settings file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(store().Path)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store().Load()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var configLayoutCmd = &cobra.Command{
	Use:   "set-layout <name>",
	Short: "Make a keyboard layout the saved key mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := store().ApplyLayout(config.LayoutsDir, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("layout %s saved (%d keys)\n", args[0], len(m))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <json-value>",
	Short: "Set a top-level setting, e.g. set pause_key '\"p\"'",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var v any
		if err := json.Unmarshal([]byte(args[1]), &v); err != nil {
			// bare words are taken as strings
			v = args[1]
		}
		st := store()
		if err := st.Patch(map[string]any{args[0]: v}); err != nil {
			return err
		}
		s, err := st.Load()
		if err != nil {
			return err
		}
		return s.Validate()
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configShowCmd, configLayoutCmd, configSetCmd)
}
