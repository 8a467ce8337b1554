package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sportsreelstechnical/version-1-sub001/internal/config"
	"github.com/sportsreelstechnical/version-1-sub001/internal/console"
	"github.com/sportsreelstechnical/version-1-sub001/internal/database"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/credential"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/mailer"
	"github.com/sportsreelstechnical/version-1-sub001/internal/repository"
	"github.com/sportsreelstechnical/version-1-sub001/internal/service"
)

type resetOptions struct {
	kind      string
	id        string
	actorID   string
	clubID    string
	sendEmail bool
	token     string
	copyField string
}

// newResetPasswordCmd — сброс пароля из консоли оператора.
// Учётные данные показываются один раз; письмо уходит через
// POST CA_EMAIL_ENDPOINT_URL с токеном оператора.
func newResetPasswordCmd() *cobra.Command {
	var opts resetOptions

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Сбросить пароль игрока или сотрудника и показать новые учётные данные",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.kind {
			case string(model.UserTypePlayer), string(model.UserTypeStaff):
			default:
				return fmt.Errorf("--kind: недопустимое значение %q, допустимые: player, staff", opts.kind)
			}
			if opts.sendEmail && opts.token == "" {
				return fmt.Errorf("--send-email требует --token (или CA_SESSION_TOKEN)")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("загрузка конфигурации: %w", err)
			}
			return resetPassword(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", "", "Тип учётной записи: player, staff (обязательно)")
	cmd.Flags().StringVar(&opts.id, "id", "", "ID игрока или сотрудника (обязательно)")
	cmd.Flags().StringVar(&opts.actorID, "actor", "", "sub владельца клуба, от имени которого выполняется сброс (обязательно)")
	cmd.Flags().StringVar(&opts.clubID, "club", "", "ID клуба (по умолчанию — клуб владельца)")
	cmd.Flags().BoolVar(&opts.sendEmail, "send-email", false, "Отправить учётные данные письмом")
	cmd.Flags().StringVar(&opts.token, "token", os.Getenv("CA_SESSION_TOKEN"), "Токен сессии оператора для отправки письма (env: CA_SESSION_TOKEN)")
	cmd.Flags().StringVar(&opts.copyField, "copy", "", "Скопировать поле в буфер обмена терминала: email, username, password")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("actor")

	return cmd
}

func resetPassword(cmd *cobra.Command, cfg *config.Config, opts resetOptions) error {
	ctx := cmd.Context()
	// Логи — в stderr, чтобы не смешиваться с учётными данными.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("подключение к PostgreSQL: %w", err)
	}
	defer pool.Close()

	playerRepo := repository.NewPlayerRepository(pool)
	rpc := repository.NewAccountRPC(pool)

	policy, err := credential.NewPolicy(cfg.PasswordPolicy, credential.NewCryptoRandom(), cfg.StrongPasswordLength, rpc)
	if err != nil {
		return fmt.Errorf("политика паролей: %w", err)
	}
	generator := service.NewCredentialGenerator(
		service.NewAccountBackend(rpc, playerRepo),
		policy,
		credential.NewBcryptHasher(cfg.BcryptCost),
		logger,
	)
	scope := service.NewClubScope(repository.NewClubRepository(pool))
	actor := &model.Actor{ID: opts.actorID, Role: model.RoleClub, ClubID: opts.clubID}

	cred, err := issueReset(ctx, opts, actor, scope, generator, pool, logger)
	if err != nil {
		return err
	}

	var dispatcher mailer.Dispatcher
	if opts.sendEmail {
		d, err := mailer.NewHTTPDispatcher(cfg.EmailEndpointURL, cfg.EmailTimeout, cfg.CACertPath, mailer.StaticToken(opts.token), logger)
		if err != nil {
			return fmt.Errorf("создание клиента отправки: %w", err)
		}
		dispatcher = d
	}

	presenter := service.NewCredentialPresenter(dispatcher, console.NewClipboard(cmd.ErrOrStderr()), logger)
	defer presenter.Close()

	if err := presenter.Open(cred); err != nil {
		return err
	}
	if opts.copyField != "" {
		if err := presenter.Copy(ctx, service.Field(opts.copyField)); err != nil {
			return err
		}
	}
	if opts.sendEmail {
		if err := presenter.SendEmail(ctx); err != nil {
			return err
		}
	}

	return console.Render(cmd.OutOrStdout(), presenter.View())
}

func issueReset(
	ctx context.Context,
	opts resetOptions,
	actor *model.Actor,
	scope *service.ClubScope,
	generator *service.CredentialGenerator,
	db repository.DBTX,
	logger *slog.Logger,
) (*model.Credential, error) {
	if opts.kind == string(model.UserTypeStaff) {
		staffRepo := repository.NewStaffRepository(db)
		svc := service.NewStaffService(staffRepo, repository.NewStaffPermissionRepository(db), scope, generator, logger)
		res, err := svc.ResetPassword(ctx, actor, opts.id)
		if err != nil {
			return nil, err
		}
		return res.Credential, nil
	}

	svc := service.NewPlayerService(repository.NewPlayerRepository(db), scope, generator, logger)
	res, err := svc.ResetPassword(ctx, actor, opts.id)
	if err != nil {
		return nil, err
	}
	return res.Credential, nil
}
