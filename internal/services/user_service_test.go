package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// --- fakes ---

type fakeUserRepo struct {
	users []models.User
	calls []string

	findAllErr error
	createErr  error
	saveErr    error
	deleteErr  error
}

func (f *fakeUserRepo) FindAll(ctx context.Context) ([]models.User, error) {
	f.calls = append(f.calls, "FindAll")
	if f.findAllErr != nil {
		return nil, f.findAllErr
	}
	return f.users, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.calls = append(f.calls, "FindByID")
	for i := range f.users {
		if f.users[i].ID == id {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	f.calls = append(f.calls, "FindByUsername")
	for i := range f.users {
		if f.users[i].Username == username {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.calls = append(f.calls, "Create")
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = uuid.New()
	user.Active = true
	f.users = append(f.users, *user)
	return nil
}

func (f *fakeUserRepo) Save(ctx context.Context, user *models.User) error {
	f.calls = append(f.calls, "Save")
	if f.saveErr != nil {
		return f.saveErr
	}
	for i := range f.users {
		if f.users[i].ID == user.ID {
			f.users[i] = *user
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeUserRepo) Delete(ctx context.Context, user *models.User) error {
	f.calls = append(f.calls, "Delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.users {
		if f.users[i].ID == user.ID {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeNoteRepo struct {
	owners map[uuid.UUID]bool
	calls  int
	err    error
}

func (f *fakeNoteRepo) ExistsForOwner(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.owners[ownerID], nil
}

// --- helpers ---

func newTestService(t *testing.T, users *fakeUserRepo, notes *fakeNoteRepo) *UserService {
	t.Helper()
	if notes == nil {
		notes = &fakeNoteRepo{owners: map[uuid.UUID]bool{}}
	}
	return NewUserService(users, notes, NewBcryptHasher(bcrypt.MinCost), nil)
}

func seedUser(t *testing.T, repo *fakeUserRepo, username string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	repo.users = append(repo.users, models.User{
		ID:       id,
		Username: username,
		Password: "$2a$04$notarealdigestnotarealdigestnotare",
		Roles:    datatypes.NewJSONSlice([]string{"Employee"}),
		Active:   true,
	})
	return id
}

func boolPtr(b bool) *bool { return &b }

// --- list ---

func TestListUsers_Empty(t *testing.T) {
	svc := newTestService(t, &fakeUserRepo{}, nil)

	_, err := svc.ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrNoUsers)
}

func TestListUsers_ProjectsWithoutDigest(t *testing.T) {
	repo := &fakeUserRepo{}
	seedUser(t, repo, "alice")
	seedUser(t, repo, "bob")
	svc := newTestService(t, repo, nil)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, []string{"Employee"}, users[0].Roles)
}

// --- create ---

func TestCreateUser_ValidationBeforeStore(t *testing.T) {
	tests := []struct {
		name string
		req  dto.CreateUserRequest
	}{
		{name: "empty username", req: dto.CreateUserRequest{Password: "pw", Roles: []string{"Employee"}}},
		{name: "empty password", req: dto.CreateUserRequest{Username: "alice", Roles: []string{"Employee"}}},
		{name: "no roles", req: dto.CreateUserRequest{Username: "alice", Password: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUserRepo{}
			svc := newTestService(t, repo, nil)

			_, err := svc.CreateUser(context.Background(), &tt.req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Empty(t, repo.calls, "validation failures must not touch the store")
		})
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	repo := &fakeUserRepo{}
	seedUser(t, repo, "alice")
	svc := newTestService(t, repo, nil)

	_, err := svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Username: "alice", Password: "pw123", Roles: []string{"Employee"},
	})

	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.NotContains(t, repo.calls, "Create", "no insert after a duplicate hit")
	assert.Len(t, repo.users, 1)
}

func TestCreateUser_StoreLevelDuplicate(t *testing.T) {
	// The fast-path lookup misses but the unique index rejects the insert,
	// e.g. a concurrent create won the race.
	repo := &fakeUserRepo{createErr: repository.ErrDuplicate}
	svc := newTestService(t, repo, nil)

	_, err := svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Username: "alice", Password: "pw123", Roles: []string{"Employee"},
	})

	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestCreateUser_StoreRejectsData(t *testing.T) {
	repo := &fakeUserRepo{createErr: repository.ErrInvalidData}
	svc := newTestService(t, repo, nil)

	_, err := svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Username: "alice", Password: "pw123", Roles: []string{"Employee"},
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Invalid user data received", vErr.Message)
}

func TestCreateUser_Roundtrip(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := newTestService(t, repo, nil)

	username, err := svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Username: "alice", Password: "pw123", Roles: []string{"Employee"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	require.Len(t, repo.users, 1)
	stored := repo.users[0]
	assert.NotEqual(t, "pw123", stored.Password, "plaintext must never be stored")
	assert.True(t, NewBcryptHasher(bcrypt.MinCost).Verify("pw123", stored.Password))

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

// --- update ---

func TestUpdateUser_ValidationBeforeStore(t *testing.T) {
	tests := []struct {
		name string
		req  dto.UpdateUserRequest
	}{
		{name: "missing id", req: dto.UpdateUserRequest{Username: "alice", Roles: []string{"Employee"}, Active: boolPtr(true)}},
		{name: "missing username", req: dto.UpdateUserRequest{ID: uuid.NewString(), Roles: []string{"Employee"}, Active: boolPtr(true)}},
		{name: "no roles", req: dto.UpdateUserRequest{ID: uuid.NewString(), Username: "alice", Active: boolPtr(true)}},
		{name: "missing active", req: dto.UpdateUserRequest{ID: uuid.NewString(), Username: "alice", Roles: []string{"Employee"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUserRepo{}
			svc := newTestService(t, repo, nil)

			_, err := svc.UpdateUser(context.Background(), &tt.req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Empty(t, repo.calls)
		})
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	svc := newTestService(t, &fakeUserRepo{}, nil)

	_, err := svc.UpdateUser(context.Background(), &dto.UpdateUserRequest{
		ID: uuid.NewString(), Username: "bob", Roles: []string{"Employee"}, Active: boolPtr(true),
	})

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser_KeepOwnUsername(t *testing.T) {
	repo := &fakeUserRepo{}
	id := seedUser(t, repo, "alice")
	svc := newTestService(t, repo, nil)

	username, err := svc.UpdateUser(context.Background(), &dto.UpdateUserRequest{
		ID: id.String(), Username: "alice", Roles: []string{"Manager"}, Active: boolPtr(false),
	})

	require.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.Equal(t, []string{"Manager"}, []string(repo.users[0].Roles))
	assert.False(t, repo.users[0].Active)
}

func TestUpdateUser_DuplicateOtherRecord(t *testing.T) {
	repo := &fakeUserRepo{}
	id := seedUser(t, repo, "alice")
	seedUser(t, repo, "bob")
	svc := newTestService(t, repo, nil)

	_, err := svc.UpdateUser(context.Background(), &dto.UpdateUserRequest{
		ID: id.String(), Username: "bob", Roles: []string{"Employee"}, Active: boolPtr(true),
	})

	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.Equal(t, "alice", repo.users[0].Username, "conflicting update must not persist")
}

func TestUpdateUser_PasswordOptional(t *testing.T) {
	repo := &fakeUserRepo{}
	id := seedUser(t, repo, "alice")
	originalDigest := repo.users[0].Password
	svc := newTestService(t, repo, nil)

	// No password supplied: digest unchanged.
	_, err := svc.UpdateUser(context.Background(), &dto.UpdateUserRequest{
		ID: id.String(), Username: "alice", Roles: []string{"Employee"}, Active: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, originalDigest, repo.users[0].Password)

	// New password supplied: digest replaced and verifiable.
	_, err = svc.UpdateUser(context.Background(), &dto.UpdateUserRequest{
		ID: id.String(), Username: "alice", Roles: []string{"Employee"}, Active: boolPtr(true),
		Password: "newpw456",
	})
	require.NoError(t, err)
	assert.NotEqual(t, originalDigest, repo.users[0].Password)
	assert.True(t, NewBcryptHasher(bcrypt.MinCost).Verify("newpw456", repo.users[0].Password))
}

func TestUpdateUser_SaveConflict(t *testing.T) {
	repo := &fakeUserRepo{saveErr: repository.ErrDuplicate}
	id := seedUser(t, repo, "alice")
	svc := newTestService(t, repo, nil)

	_, err := svc.UpdateUser(context.Background(), &dto.UpdateUserRequest{
		ID: id.String(), Username: "carol", Roles: []string{"Employee"}, Active: boolPtr(true),
	})

	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

// --- delete ---

func TestDeleteUser_MissingID(t *testing.T) {
	repo := &fakeUserRepo{}
	notes := &fakeNoteRepo{owners: map[uuid.UUID]bool{}}
	svc := newTestService(t, repo, notes)

	_, err := svc.DeleteUser(context.Background(), "")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, repo.calls)
	assert.Zero(t, notes.calls)
}

func TestDeleteUser_GuardedByNotes(t *testing.T) {
	repo := &fakeUserRepo{}
	id := seedUser(t, repo, "alice")
	notes := &fakeNoteRepo{owners: map[uuid.UUID]bool{id: true}}
	svc := newTestService(t, repo, notes)

	_, err := svc.DeleteUser(context.Background(), id.String())

	assert.ErrorIs(t, err, ErrUserHasNotes)
	assert.Len(t, repo.users, 1, "guarded delete must leave the user in place")
}

func TestDeleteUser_NotFound(t *testing.T) {
	svc := newTestService(t, &fakeUserRepo{}, nil)

	_, err := svc.DeleteUser(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser_Success(t *testing.T) {
	repo := &fakeUserRepo{}
	id := seedUser(t, repo, "alice")
	svc := newTestService(t, repo, nil)

	deleted, err := svc.DeleteUser(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, id, deleted.ID)
	assert.Equal(t, "alice", deleted.Username)

	_, err = repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteUser_NoteCheckFails(t *testing.T) {
	repo := &fakeUserRepo{}
	id := seedUser(t, repo, "alice")
	notes := &fakeNoteRepo{err: errors.New("store down")}
	svc := newTestService(t, repo, notes)

	_, err := svc.DeleteUser(context.Background(), id.String())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserHasNotes)
	assert.Len(t, repo.users, 1)
}
