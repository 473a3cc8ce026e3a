package user

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	seq   int
	users map[string]*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*User)}
}

func (r *fakeRepo) Create(_ context.Context, u *User) error {
	r.seq++
	u.ID = "u-" + strconv.Itoa(r.seq)
	r.users[u.ID] = u
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) GetByPhone(_ context.Context, phone string) (*User, error) {
	for _, u := range r.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) List(_ context.Context, _ Filter) ([]*User, int, error) {
	out := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Update(_ context.Context, u *User) error {
	if _, ok := r.users[u.ID]; !ok {
		return ErrNotFound
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// plainHasher avoids bcrypt cost in unit tests.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "h:" + plain, nil }

func (plainHasher) Compare(hash, plain string) error {
	if hash != "h:"+plain {
		return ErrInvalidCredentials
	}
	return nil
}

func newTestService() (Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, plainHasher{}), repo
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Register(context.Background(), "55512345", "secreto")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "55512345", u.Phone)
	assert.Equal(t, "h:secreto", u.PasswordHash)
	assert.False(t, u.IsAdmin)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name     string
		phone    string
		password string
		wantErr  error
	}{
		{"phone too short", "1234567", "secreto", ErrInvalidPhone},
		{"phone too long", "123456789", "secreto", ErrInvalidPhone},
		{"phone with letters", "5551234a", "secreto", ErrInvalidPhone},
		{"password too short", "55512345", "corta", ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.phone, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), "55512345", "secreto")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "55512345", "otraclave")
	assert.ErrorIs(t, err, ErrPhoneAlreadyUsed)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Register(context.Background(), "55512345", "secreto")
	require.NoError(t, err)

	got, err := svc.Login(context.Background(), "55512345", "secreto")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Login(context.Background(), "55512345", "equivocada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "55500000", "secreto")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Register(context.Background(), "55512345", "secreto")
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), u.ID, "55599999", "nuevaclave")
	require.NoError(t, err)
	assert.Equal(t, "55599999", got.Phone)
	assert.Equal(t, "h:nuevaclave", got.PasswordHash)

	// Empty fields leave the record untouched.
	got, err = svc.Update(context.Background(), u.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, "55599999", got.Phone)
	assert.Equal(t, "h:nuevaclave", got.PasswordHash)
}

func TestUpdateValidation(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Register(context.Background(), "55512345", "secreto")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "55500000", "secreto")
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       string
		phone    string
		password string
		wantErr  error
	}{
		{"invalid phone", u.ID, "123", "", ErrInvalidPhone},
		{"short password", u.ID, "", "corta", ErrPasswordTooShort},
		{"phone taken by someone else", u.ID, "55500000", "", ErrPhoneAlreadyUsed},
		{"missing user", "missing", "55598765", "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), tt.id, tt.phone, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Register(context.Background(), "55512345", "secreto")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), u.ID))

	_, err = svc.GetByID(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetAdmin(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Register(context.Background(), "55512345", "secreto")
	require.NoError(t, err)

	got, err := svc.SetAdmin(context.Background(), u.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	_, err = svc.SetAdmin(context.Background(), "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}
