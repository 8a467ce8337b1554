package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/repository"
)

var (
	testClub  = &model.Club{ID: "club-1", OwnerUserID: "owner", Name: "FC Test"}
	ownerUser = &model.Actor{ID: "owner", Role: model.RoleClub}
)

func newTestScope() *ClubScope {
	return NewClubScope(&fakeClubs{byOwner: map[string]*model.Club{"owner": testClub}})
}

func newTestPlayerService(repo *fakePlayers, backend *fakeBackend) *PlayerService {
	return NewPlayerService(repo, newTestScope(), newGenerator(backend, &fixedPolicy{password: "jane.doe4321"}), testLogger())
}

func TestPlayerService_Create(t *testing.T) {
	repo := newFakePlayers()
	svc := newTestPlayerService(repo, newFakeBackend())

	res, err := svc.Create(context.Background(), ownerUser, CreatePlayerInput{
		FirstName: " Jane ", LastName: "Doe", Email: "jane.doe@x.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if res.Credential.Username != "jane.doe" || res.Credential.Password != "jane.doe4321" {
		t.Errorf("Credential = %+v", res.Credential)
	}
	if res.Credential.ClubName != "FC Test" || res.Credential.RecipientName != "Jane Doe" {
		t.Errorf("неверные данные письма: %+v", res.Credential)
	}

	stored, err := repo.GetByID(context.Background(), "club-1", res.ID)
	if err != nil {
		t.Fatalf("игрок не сохранён: %v", err)
	}
	if stored.PasswordHash != "hashed:jane.doe4321" {
		t.Errorf("PasswordHash = %q, ожидался хэш", stored.PasswordHash)
	}
	if !stored.PasswordResetRequired {
		t.Error("PasswordResetRequired должен быть true")
	}
	if stored.ClubID != testClub.ID || stored.FirstName != "Jane" {
		t.Errorf("сохранённый игрок = %+v", stored)
	}
}

func TestPlayerService_CreateErrors(t *testing.T) {
	tests := []struct {
		name      string
		actor     *model.Actor
		input     CreatePlayerInput
		createErr error
		wantIs    error
		wantKind  CredentialErrorKind
	}{
		{
			name:   "нет имени",
			actor:  ownerUser,
			input:  CreatePlayerInput{LastName: "Doe", Email: "a@x.com"},
			wantIs: ErrValidation,
		},
		{
			name:   "актор без клуба",
			actor:  &model.Actor{ID: "stranger", Role: model.RoleClub},
			input:  CreatePlayerInput{FirstName: "A", LastName: "B", Email: "a@x.com"},
			wantIs: ErrForbidden,
		},
		{
			name:     "некорректный email",
			actor:    ownerUser,
			input:    CreatePlayerInput{FirstName: "A", LastName: "B", Email: "@x.com"},
			wantIs:   ErrValidation,
			wantKind: KindGeneration,
		},
		{
			name:      "дубликат",
			actor:     ownerUser,
			input:     CreatePlayerInput{FirstName: "A", LastName: "B", Email: "a@x.com"},
			createErr: repository.ErrConflict,
			wantIs:    ErrConflict,
			wantKind:  KindPersistence,
		},
		{
			name:      "сбой записи",
			actor:     ownerUser,
			input:     CreatePlayerInput{FirstName: "A", LastName: "B", Email: "a@x.com"},
			createErr: errors.New("connection lost"),
			wantKind:  KindPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakePlayers()
			repo.createErr = tt.createErr
			svc := newTestPlayerService(repo, newFakeBackend())

			res, err := svc.Create(context.Background(), tt.actor, tt.input)
			if err == nil {
				t.Fatalf("ожидалась ошибка, получено %+v", res)
			}
			if res != nil {
				t.Error("при ошибке учётные данные не выдаются")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("ошибка %v, ожидалась %v", err, tt.wantIs)
			}
			if tt.wantKind != "" {
				if kind := credentialKind(t, err); kind != tt.wantKind {
					t.Errorf("Kind = %q, ожидалось %q", kind, tt.wantKind)
				}
			}
		})
	}
}

func TestPlayerService_ListDelete(t *testing.T) {
	repo := newFakePlayers()
	svc := newTestPlayerService(repo, newFakeBackend())
	ctx := context.Background()

	res, err := svc.Create(ctx, ownerUser, CreatePlayerInput{FirstName: "A", LastName: "B", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = repo.Create(ctx, &model.Player{ID: "foreign", ClubID: "club-2", Username: "x"})

	list, total, err := svc.List(ctx, ownerUser, 50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("List = %d игроков, total = %d; ожидался 1", len(list), total)
	}

	if err := svc.Delete(ctx, ownerUser, "foreign"); !errors.Is(err, ErrNotFound) {
		t.Errorf("удаление чужого игрока = %v, ожидалась ErrNotFound", err)
	}
	if err := svc.Delete(ctx, ownerUser, res.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, ownerUser, res.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторное удаление = %v", err)
	}
}

func TestPlayerService_ResetPassword(t *testing.T) {
	repo := newFakePlayers()
	backend := newFakeBackend()
	backend.readUsername = "jane.doe"
	svc := newTestPlayerService(repo, backend)
	ctx := context.Background()

	_ = repo.Create(ctx, &model.Player{
		ID: "p-1", ClubID: "club-1", FirstName: "Jane", LastName: "Doe",
		Email: "jane.doe@x.com", Username: "jane.doe",
	})

	res, err := svc.ResetPassword(ctx, ownerUser, "p-1")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if res.Credential.Username != "jane.doe" || res.Credential.Password != "jane.doe4321" {
		t.Errorf("Credential = %+v", res.Credential)
	}
	if backend.resetPlayers["p-1"] != "hashed:jane.doe4321" {
		t.Errorf("в reset_player_password передан %q", backend.resetPlayers["p-1"])
	}

	if _, err := svc.ResetPassword(ctx, ownerUser, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("сброс несуществующего игрока = %v", err)
	}
}

func TestPlayerService_ResetPasswordFailure(t *testing.T) {
	repo := newFakePlayers()
	backend := newFakeBackend()
	backend.resetErr = errors.New("rpc timeout")
	svc := newTestPlayerService(repo, backend)
	ctx := context.Background()

	_ = repo.Create(ctx, &model.Player{ID: "p-1", ClubID: "club-1", Email: "a@x.com"})

	res, err := svc.ResetPassword(ctx, ownerUser, "p-1")
	if err == nil || res != nil {
		t.Fatalf("ожидалась ошибка без учётных данных: %+v, %v", res, err)
	}
	if kind := credentialKind(t, err); kind != KindPersistence {
		t.Errorf("Kind = %q", kind)
	}
}

func TestClubScope_Resolve(t *testing.T) {
	scope := newTestScope()
	ctx := context.Background()

	club, err := scope.Resolve(ctx, &model.Actor{ID: "someone", ClubID: "club-1"})
	if err != nil || club.ID != "club-1" {
		t.Errorf("по claim club_id: %+v, %v", club, err)
	}

	club, err = scope.Resolve(ctx, ownerUser)
	if err != nil || club.ID != "club-1" {
		t.Errorf("по владельцу: %+v, %v", club, err)
	}

	if _, err := scope.Resolve(ctx, &model.Actor{ID: "x", ClubID: "club-404"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("неизвестный клуб = %v", err)
	}
	if _, err := scope.Resolve(ctx, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("без актора = %v", err)
	}
}
