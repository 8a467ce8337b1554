package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/credential"
)

// newPasswordCmd — пример пароля по локальной политике (derived, strong).
// Политика remote требует БД и здесь не поддерживается.
func newPasswordCmd() *cobra.Command {
	var (
		email  string
		policy string
		length int
	)

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Показать пример пароля по политике",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if policy == credential.PolicyRemote {
				return fmt.Errorf("политика remote генерирует пароль в БД, используйте reset-password")
			}

			p, err := credential.NewPolicy(policy, credential.NewCryptoRandom(), length, nil)
			if err != nil {
				return err
			}

			pw, err := p.Generate(cmd.Context(), email)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Логин (fallback): %s\nПароль (%s): %s\n", credential.LocalPart(email), p.Name(), pw)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email получателя (обязательно)")
	cmd.Flags().StringVar(&policy, "policy", credential.PolicyDerived, "Политика: derived, strong")
	cmd.Flags().IntVar(&length, "length", 16, "Длина пароля для политики strong")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
