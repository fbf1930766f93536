package app

import (
	"context"
	"testing"

	"github.com/example/mes/internal/apperr"
	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/core/optional"
	"github.com/example/mes/internal/models"
	"github.com/example/mes/internal/ports/primary"
)

func newTestUserService() (*UserServiceImpl, *mockUserRepository) {
	userRepo := newMockUserRepository()
	userRepo.seedCallers("hashed:secret")
	service := NewUserService(userRepo, mockHasher{})
	service.now = fixedNow
	return service, userRepo
}

func TestCreateUser_Success(t *testing.T) {
	service, repo := newTestUserService()

	user, err := service.CreateUser(context.Background(), capFor(testAdmin, authz.OpUserCreate), primary.CreateUserRequest{
		Email:    "  New.Hire@MES.com ",
		Name:     "New Hire",
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Email != "new.hire@mes.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.Role != models.RoleWorker {
		t.Errorf("expected default WORKER role, got %s", user.Role)
	}
	if !user.Active {
		t.Error("new accounts should be active")
	}
	if stored := repo.users[user.ID]; stored.PasswordHash != "hashed:password1" {
		t.Errorf("expected hashed password, got %q", stored.PasswordHash)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	service, _ := newTestUserService()

	_, err := service.CreateUser(context.Background(), capFor(testAdmin, authz.OpUserCreate), primary.CreateUserRequest{
		Email:    "WORKER@mes.com",
		Name:     "Dup",
		Password: "password1",
	})
	assertKind(t, err, apperr.KindDuplicate)
}

func TestCreateUser_Validation(t *testing.T) {
	service, _ := newTestUserService()

	_, err := service.CreateUser(context.Background(), capFor(testAdmin, authz.OpUserCreate), primary.CreateUserRequest{
		Email:    "not-an-email",
		Name:     "",
		Password: "123",
		Role:     "OWNER",
	})
	assertKind(t, err, apperr.KindValidation)
	appErr, _ := apperr.As(err)
	if len(appErr.Fields) != 4 {
		t.Errorf("expected 4 field errors, got %v", appErr.Fields)
	}
}

func TestGetUser_WorkerOnlySelf(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()

	if _, err := service.GetUser(ctx, capFor(testWorker, authz.OpUserRead), testWorker.UserID); err != nil {
		t.Fatalf("worker should read self, got %v", err)
	}
	_, err := service.GetUser(ctx, capFor(testWorker, authz.OpUserRead), testAdmin.UserID)
	assertKind(t, err, apperr.KindForbidden)
}

func TestListUsers(t *testing.T) {
	service, _ := newTestUserService()

	users, err := service.ListUsers(context.Background(), capFor(testManager, authz.OpUserList))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(users) != 4 || users[0].ID != testAdmin.UserID {
		t.Errorf("expected 4 users ordered by id, got %d", len(users))
	}
}

func TestUpdateUser_SelfNameAndPassword(t *testing.T) {
	service, repo := newTestUserService()

	updated, err := service.UpdateUser(context.Background(), capFor(testWorker, authz.OpUserUpdate), testWorker.UserID, primary.UpdateUserRequest{
		Name:     optional.Of("Renamed Worker"),
		Password: optional.Of("newsecret"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Name != "Renamed Worker" {
		t.Errorf("expected new name, got %q", updated.Name)
	}
	if repo.users[testWorker.UserID].PasswordHash != "hashed:newsecret" {
		t.Error("expected password to be rehashed")
	}
	if repo.updates != 1 {
		t.Errorf("expected a single write, got %d", repo.updates)
	}
}

func TestUpdateUser_WorkerCannotChangeRoleOrActive(t *testing.T) {
	service, repo := newTestUserService()
	ctx := context.Background()
	c := capFor(testWorker, authz.OpUserUpdate)

	_, err := service.UpdateUser(ctx, c, testWorker.UserID, primary.UpdateUserRequest{
		Role: optional.Of(models.RoleAdmin),
	})
	assertKind(t, err, apperr.KindForbidden)

	_, err = service.UpdateUser(ctx, c, testWorker.UserID, primary.UpdateUserRequest{
		Name:   optional.Of("Still Me"),
		Active: optional.Of(false),
	})
	assertKind(t, err, apperr.KindForbidden)

	if repo.updates != 0 {
		t.Errorf("rejected updates must not write, got %d writes", repo.updates)
	}
	if repo.users[testWorker.UserID].Name != testWorker.Name {
		t.Error("name must not change when another field is rejected")
	}
}

func TestUpdateUser_WorkerCannotUpdateOthers(t *testing.T) {
	service, _ := newTestUserService()

	_, err := service.UpdateUser(context.Background(), capFor(testWorker, authz.OpUserUpdate), testOther.UserID, primary.UpdateUserRequest{
		Name: optional.Of("Hijack"),
	})
	assertKind(t, err, apperr.KindForbidden)
}

func TestUpdateUser_AdminChangesRole(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()
	c := capFor(testAdmin, authz.OpUserUpdate)

	updated, err := service.UpdateUser(ctx, c, testWorker.UserID, primary.UpdateUserRequest{
		Role: optional.Of(models.RoleManager),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Role != models.RoleManager {
		t.Errorf("expected MANAGER, got %s", updated.Role)
	}

	_, err = service.UpdateUser(ctx, c, testAdmin.UserID, primary.UpdateUserRequest{
		Role: optional.Of(models.RoleWorker),
	})
	assertKind(t, err, apperr.KindInvalidState)
}

func TestUpdateUser_NameLength(t *testing.T) {
	service, _ := newTestUserService()

	_, err := service.UpdateUser(context.Background(), capFor(testAdmin, authz.OpUserUpdate), testWorker.UserID, primary.UpdateUserRequest{
		Name: optional.Of("X"),
	})
	assertKind(t, err, apperr.KindValidation)
}

func TestChangePassword(t *testing.T) {
	service, repo := newTestUserService()
	ctx := context.Background()
	c := capFor(testWorker, authz.OpUserUpdate)

	err := service.ChangePassword(ctx, c, primary.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newsecret"})
	assertKind(t, err, apperr.KindValidation)

	err = service.ChangePassword(ctx, c, primary.ChangePasswordRequest{CurrentPassword: "secret", NewPassword: "123"})
	assertKind(t, err, apperr.KindValidation)

	if err := service.ChangePassword(ctx, c, primary.ChangePasswordRequest{CurrentPassword: "secret", NewPassword: "newsecret"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.users[testWorker.UserID].PasswordHash != "hashed:newsecret" {
		t.Error("expected password to change")
	}
}

func TestSetActive(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()
	c := capFor(testAdmin, authz.OpUserActivate)

	user, err := service.SetActive(ctx, c, testWorker.UserID, false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Active {
		t.Error("expected account to be disabled")
	}

	_, err = service.SetActive(ctx, c, testAdmin.UserID, false)
	assertKind(t, err, apperr.KindInvalidState)

	_, err = authz.Authorize(testManager, authz.OpUserActivate)
	assertKind(t, err, apperr.KindForbidden)
}

func TestDeleteUser(t *testing.T) {
	service, repo := newTestUserService()
	ctx := context.Background()
	c := capFor(testAdmin, authz.OpUserDelete)

	err := service.DeleteUser(ctx, c, testAdmin.UserID)
	assertKind(t, err, apperr.KindInvalidState)

	if err := service.DeleteUser(ctx, c, testOther.UserID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := repo.users[testOther.UserID]; ok {
		t.Error("expected user to be deleted")
	}

	err = service.DeleteUser(ctx, c, testOther.UserID)
	assertKind(t, err, apperr.KindNotFound)
}
