package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/core/usecase"
	"github.com/kirillkom/notewise/internal/infrastructure/credential/terminal"
)

var enrollCmd = &cobra.Command{
	Use:         "enroll",
	Short:       "Set or change the passphrase that unlocks notewise",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipGateAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		authenticator := terminal.New(cfg.CredentialPath)

		// changing an existing passphrase requires the current one
		if authenticator.Capability(cmd.Context()) == domain.CapabilityAvailable {
			gate := usecase.NewAuthGateUseCase(authenticator, "Current passphrase", "Confirm the passphrase you want to replace.")
			if err := unlock(cmd.Context(), gate, bufio.NewReader(os.Stdin), os.Stderr); err != nil {
				return err
			}
		}

		passphrase, err := authenticator.ReadNewPassphrase()
		if err != nil {
			return err
		}
		if err := authenticator.Enroll(passphrase); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("Passphrase saved to "+cfg.CredentialPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}
