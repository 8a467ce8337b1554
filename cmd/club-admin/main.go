// Точка входа Club Admin — выдача учётных данных игрокам и персоналу клуба
// и управление правами персонала.
//
// Команды:
//   - serve — HTTP API (миграции, PostgreSQL, JWT, кэш прав, отправка писем);
//   - migrate — только применение миграций;
//   - password — пример пароля по выбранной политике;
//   - reset-password — сброс пароля из консоли оператора с показом учётных данных.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sportsreelstechnical/version-1-sub001/internal/config"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "club-admin",
		Short:   "Club Admin — учётные данные и права персонала клуба",
		Version: config.Version,
		Long: `club-admin выдаёт учётные данные игрокам и персоналу клуба,
сбрасывает пароли и управляет правами персонала.

Конфигурация задаётся переменными окружения с префиксом CA_.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newPasswordCmd())
	rootCmd.AddCommand(newResetPasswordCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
