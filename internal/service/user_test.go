package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/taskapi/internal/apperror"
	"github.com/sakif/taskapi/internal/auth"
	"github.com/sakif/taskapi/internal/model"
	"github.com/sakif/taskapi/internal/repository"
	"github.com/sakif/taskapi/internal/repository/sqlstore"
)

func newTestUserService(t *testing.T) (*UserService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	return NewUserService(repo, auth.NewPasswordServiceForTest(), discardLogger()), repo
}

func mustAdd(t *testing.T, svc *UserService, username, password, email string) *model.User {
	t.Helper()
	u, err := svc.Add(context.Background(), username, password, email)
	if err != nil {
		t.Fatalf("Add(%q) error = %v", username, err)
	}
	return u
}

func strPtr(s string) *string { return &s }

// =========================================================================
// Add TESTS
// =========================================================================

func TestUserAdd_StoresHashNotPlaintext(t *testing.T) {
	svc, repo := newTestUserService(t)

	u := mustAdd(t, svc, "  alice ", "secret123", "a@x.com")

	if u.ID == 0 {
		t.Error("Add() did not assign an id")
	}
	if u.Username != "alice" {
		t.Errorf("Username = %q, want trimmed %q", u.Username, "alice")
	}
	stored := repo.users[u.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "secret123" {
		t.Errorf("stored password = %q, want a bcrypt hash", stored.PasswordHash)
	}
	if !svc.passwords.Matches(stored.PasswordHash, "secret123") {
		t.Error("stored hash does not verify against the plaintext password")
	}
}

func TestUserAdd_Validation(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		email     string
		wantField string
	}{
		{"missing username", "", "pw", "a@x.com", "username"},
		{"blank username", "   ", "pw", "a@x.com", "username"},
		{"missing email", "alice", "pw", "", "email"},
		{"missing password", "alice", "", "a@x.com", "password"},
		{"password too long", "alice", strings.Repeat("p", 73), "a@x.com", "password"},
		{"username too long", strings.Repeat("u", MaxFieldLength+1), "pw", "a@x.com", "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestUserService(t)

			_, err := svc.Add(context.Background(), tt.username, tt.password, tt.email)

			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Add() error = %v, want validation error", err)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
			if len(repo.users) != 0 {
				t.Errorf("repository mutated on validation failure: %d users", len(repo.users))
			}
		})
	}
}

func TestUserAdd_DuplicateConflicts(t *testing.T) {
	svc, repo := newTestUserService(t)
	mustAdd(t, svc, "alice", "pw", "a@x.com")

	_, err := svc.Add(context.Background(), "alice", "pw2", "other@x.com")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Add() duplicate error = %v, want ErrConflict", err)
	}
	if len(repo.users) != 1 {
		t.Errorf("user count = %d, want 1", len(repo.users))
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestUserVerify(t *testing.T) {
	svc, _ := newTestUserService(t)
	mustAdd(t, svc, "alice", "secret123", "a@x.com")

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"correct credentials", "alice", "secret123", nil},
		{"wrong password", "alice", "wrong", ErrNotVerified},
		{"unknown user", "mallory", "secret123", ErrNotVerified},
		{"empty password", "alice", "", ErrNotVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Verify(context.Background(), tt.username, tt.password)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Verify() error = %v, want nil", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, apperror.ErrUnauthorized) {
				t.Errorf("Verify() error does not wrap ErrUnauthorized")
			}
		})
	}
}

func TestUserVerify_RepositoryFailureIsNotUnauthorized(t *testing.T) {
	svc, repo := newTestUserService(t)
	repo.err = errDatabaseDown

	err := svc.Verify(context.Background(), "alice", "pw")
	if !errors.Is(err, errDatabaseDown) {
		t.Fatalf("Verify() error = %v, want wrapped database error", err)
	}
	if errors.Is(err, apperror.ErrUnauthorized) {
		t.Error("database failure must not be reported as bad credentials")
	}
}

func TestUserAddThenVerify_Property(t *testing.T) {
	svc, _ := newTestUserService(t)

	cases := []struct{ username, password, email string }{
		{"alice", "secret123", "a@x.com"},
		{"bob", "p@$$w0rd!", "b@x.com"},
		{"çağrı", "пароль-密码", "c@x.com"},
		{" carol ", "secret123", "carol@x.com"},
		{"\tdave\n", "secret123", "d@x.com"},
	}
	for _, c := range cases {
		mustAdd(t, svc, c.username, c.password, c.email)
		if err := svc.Verify(context.Background(), c.username, c.password); err != nil {
			t.Errorf("Verify(%q) after Add() error = %v", c.username, err)
		}
	}

	// The stored name is the trimmed one, and it verifies too.
	if err := svc.Verify(context.Background(), "carol", "secret123"); err != nil {
		t.Errorf("Verify(%q) error = %v", "carol", err)
	}
}

// =========================================================================
// List / Delete TESTS
// =========================================================================

func TestUserList(t *testing.T) {
	svc, repo := newTestUserService(t)
	mustAdd(t, svc, "a", "pw", "a@x.com")
	mustAdd(t, svc, "b", "pw", "b@x.com")

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 || users[0].Username != "a" || users[1].Username != "b" {
		t.Errorf("List() = %+v", users)
	}

	repo.err = errDatabaseDown
	if _, err := svc.List(context.Background()); !errors.Is(err, errDatabaseDown) {
		t.Errorf("List() error = %v, want wrapped database error", err)
	}
}

func TestUserDelete(t *testing.T) {
	svc, _ := newTestUserService(t)
	u := mustAdd(t, svc, "gone", "pw", "g@x.com")

	if err := svc.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	users, _ := svc.List(context.Background())
	for _, other := range users {
		if other.ID == u.ID {
			t.Errorf("deleted user %d still listed", u.ID)
		}
	}

	if err := svc.Delete(context.Background(), u.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() of missing id error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(context.Background(), 0); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Delete(0) error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// UpdateProfile / UpdatePassword TESTS
// =========================================================================

func TestUserUpdateProfile_OnlyUsernameChanges(t *testing.T) {
	svc, repo := newTestUserService(t)
	u := mustAdd(t, svc, "old", "pw", "keep@x.com")
	hashBefore := repo.users[u.ID].PasswordHash

	updated, err := svc.UpdateProfile(context.Background(), u.ID, model.UserPatch{Username: strPtr("new")})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if updated.Username != "new" {
		t.Errorf("Username = %q, want %q", updated.Username, "new")
	}
	stored := repo.users[u.ID]
	if stored.Email != "keep@x.com" {
		t.Errorf("Email = %q, want unchanged", stored.Email)
	}
	if stored.PasswordHash != hashBefore {
		t.Error("password hash changed by a profile update")
	}
}

func TestUserUpdateProfile_EmailOnlyAndEmptyPatch(t *testing.T) {
	svc, repo := newTestUserService(t)
	u := mustAdd(t, svc, "name", "pw", "old@x.com")

	if _, err := svc.UpdateProfile(context.Background(), u.ID, model.UserPatch{Email: strPtr("new@x.com")}); err != nil {
		t.Fatalf("UpdateProfile(email) error = %v", err)
	}
	if got := repo.users[u.ID]; got.Email != "new@x.com" || got.Username != "name" {
		t.Errorf("after email update got %+v", got)
	}

	same, err := svc.UpdateProfile(context.Background(), u.ID, model.UserPatch{})
	if err != nil {
		t.Fatalf("UpdateProfile(empty) error = %v", err)
	}
	if same.Username != "name" || same.Email != "new@x.com" {
		t.Errorf("empty patch returned %+v", same)
	}
}

func TestUserUpdateProfile_Errors(t *testing.T) {
	svc, _ := newTestUserService(t)
	mustAdd(t, svc, "taken", "pw", "t@x.com")
	u := mustAdd(t, svc, "mine", "pw", "m@x.com")

	tests := []struct {
		name    string
		id      int64
		patch   model.UserPatch
		wantErr error
	}{
		{"missing user", 999, model.UserPatch{Username: strPtr("x")}, apperror.ErrNotFound},
		{"invalid id", -1, model.UserPatch{Username: strPtr("x")}, apperror.ErrValidation},
		{"blank username", u.ID, model.UserPatch{Username: strPtr(" ")}, apperror.ErrValidation},
		{"duplicate username", u.ID, model.UserPatch{Username: strPtr("taken")}, apperror.ErrConflict},
		{"duplicate email", u.ID, model.UserPatch{Email: strPtr("t@x.com")}, apperror.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(context.Background(), tt.id, tt.patch)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateProfile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserUpdatePassword(t *testing.T) {
	svc, repo := newTestUserService(t)
	u := mustAdd(t, svc, "alice", "old-password", "a@x.com")

	updated, err := svc.UpdatePassword(context.Background(), u.ID, "new-password")
	if err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}
	if updated.Username != "alice" || updated.Email != "a@x.com" {
		t.Errorf("UpdatePassword() changed profile: %+v", updated)
	}
	if repo.users[u.ID].PasswordHash == "new-password" {
		t.Fatal("password stored in plaintext")
	}

	if err := svc.Verify(context.Background(), "alice", "new-password"); err != nil {
		t.Errorf("Verify(new) error = %v", err)
	}
	if err := svc.Verify(context.Background(), "alice", "old-password"); err != ErrNotVerified {
		t.Errorf("Verify(old) error = %v, want ErrNotVerified", err)
	}
}

func TestUserUpdatePassword_Errors(t *testing.T) {
	svc, _ := newTestUserService(t)
	u := mustAdd(t, svc, "alice", "pw", "a@x.com")

	if _, err := svc.UpdatePassword(context.Background(), 404, "pw"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing user error = %v, want ErrNotFound", err)
	}
	if _, err := svc.UpdatePassword(context.Background(), u.ID, ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty password error = %v, want ErrValidation", err)
	}
}

// interleavingUserRepo runs before exactly once, ahead of the first call
// it forwards, standing in for another request that commits in between.
type interleavingUserRepo struct {
	repository.UserRepository
	before func()
}

func (r *interleavingUserRepo) interleave() {
	if f := r.before; f != nil {
		r.before = nil
		f()
	}
}

func (r *interleavingUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.interleave()
	return r.UserRepository.GetByID(ctx, id)
}

func (r *interleavingUserRepo) UpdateProfile(ctx context.Context, id int64, patch model.UserPatch) error {
	r.interleave()
	return r.UserRepository.UpdateProfile(ctx, id, patch)
}

func (r *interleavingUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	r.interleave()
	return r.UserRepository.UpdatePassword(ctx, id, hash)
}

func TestUserUpdates_ConcurrentChangesBothSurvive(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.New(context.Background(), sqlstore.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("sqlstore.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	passwords := auth.NewPasswordServiceForTest()
	other := NewUserService(db.Users(), passwords, discardLogger())
	repo := &interleavingUserRepo{UserRepository: db.Users()}
	svc := NewUserService(repo, passwords, discardLogger())

	bob := mustAdd(t, other, "bob", "oldpass", "bob@x.com")

	// Password change lands while a profile update is in flight.
	repo.before = func() {
		if _, err := other.UpdatePassword(ctx, bob.ID, "newpass"); err != nil {
			t.Errorf("concurrent UpdatePassword() error = %v", err)
		}
	}
	if _, err := svc.UpdateProfile(ctx, bob.ID, model.UserPatch{Email: strPtr("robert@x.com")}); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if err := svc.Verify(ctx, "bob", "newpass"); err != nil {
		t.Errorf("Verify(newpass) error = %v, password change was undone", err)
	}
	if err := svc.Verify(ctx, "bob", "oldpass"); err != ErrNotVerified {
		t.Errorf("Verify(oldpass) error = %v, want ErrNotVerified", err)
	}

	// Rename lands while a password update is in flight.
	repo.before = func() {
		if _, err := other.UpdateProfile(ctx, bob.ID, model.UserPatch{Username: strPtr("robert")}); err != nil {
			t.Errorf("concurrent UpdateProfile() error = %v", err)
		}
	}
	updated, err := svc.UpdatePassword(ctx, bob.ID, "thirdpass")
	if err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}
	if updated.Username != "robert" || updated.Email != "robert@x.com" {
		t.Errorf("UpdatePassword() returned %s/%s, want robert/robert@x.com", updated.Username, updated.Email)
	}
	if err := svc.Verify(ctx, "robert", "thirdpass"); err != nil {
		t.Errorf("Verify(robert, thirdpass) error = %v", err)
	}
}
