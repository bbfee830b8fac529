package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchperfect/pitchperfect/internal/projectconfig"
	"github.com/pitchperfect/pitchperfect/internal/wizard"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .pitchperfect.yaml project config interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(projectconfig.ConfigFileName); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", projectconfig.ConfigFileName)
			}

			spec, err := wizard.RunProjectWizard(os.Stdin, os.Stdout)
			if err != nil {
				return err
			}

			content, err := wizard.GenerateConfigYAML(spec)
			if err != nil {
				return err
			}
			if err := os.WriteFile(projectconfig.ConfigFileName, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", projectconfig.ConfigFileName, err)
			}

			fmt.Printf("wrote %s\n", projectconfig.ConfigFileName)
			fmt.Println("set GEMINI_API_KEY (and optionally ELEVENLABS_API_KEY) in your environment or .env")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
