package service

import (
	"context"
	"strings"
	"testing"

	"github.com/mapavioleta/mapavioleta/database"
	"github.com/mapavioleta/mapavioleta/database/model"
	"github.com/mapavioleta/mapavioleta/util/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"ana@example.org", true},
		{"a.b+c@sub.example.com.br", true},
		{"ana@example", false},
		{"ana.example.org", false},
		{"ana@example.o", false},
		{"", false},
		{"ana @example.org", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("12345"), common.ErrWeakPassword)
	assert.NoError(t, ValidatePassword("123456"))
	assert.NoError(t, ValidatePassword("çãõéíú"))
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("a", 73)), common.ErrPasswordTooLong)
}

func TestRegister(t *testing.T) {
	setup(t)
	ctx := context.Background()
	svc := UserService{}

	user, err := svc.Register(ctx, Registration{
		Handle:   "  ana  ",
		Email:    "ana@example.org",
		Password: "secret1",
		Pronouns: "ela/dela",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.Id)
	assert.Equal(t, "ana", user.Handle)
	assert.False(t, user.IsAdmin)
	assert.False(t, user.Online)
	assert.Nil(t, user.LastSeen)
	assert.Equal(t, model.DefaultPhoto, user.PhotoOrDefault())
	assert.NotEqual(t, "secret1", user.PasswordHash)

	tests := []struct {
		name string
		reg  Registration
		want error
	}{
		{"duplicate email", Registration{Handle: "other", Email: "ana@example.org", Password: "secret1"}, common.ErrDuplicateEmail},
		{"duplicate handle", Registration{Handle: "ana", Email: "other@example.org", Password: "secret1"}, common.ErrDuplicateHandle},
		{"email checked first", Registration{Handle: "ana", Email: "ana@example.org", Password: "secret1"}, common.ErrDuplicateEmail},
		{"invalid email", Registration{Handle: "bia", Email: "bia@", Password: "secret1"}, common.ErrInvalidEmail},
		{"weak password", Registration{Handle: "bia", Email: "bia@example.org", Password: "123"}, common.ErrWeakPassword},
		{"missing handle", Registration{Email: "bia@example.org", Password: "secret1"}, common.ErrMissingField},
		{"long handle", Registration{Handle: strings.Repeat("h", 51), Email: "bia@example.org", Password: "secret1"}, common.ErrFieldTooLong},
		{"long pronouns", Registration{Handle: "bia", Email: "bia@example.org", Password: "secret1", Pronouns: strings.Repeat("p", 21)}, common.ErrFieldTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.reg)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var count int64
	require.NoError(t, database.GetDB().Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestAuthenticate(t *testing.T) {
	setup(t)
	ctx := context.Background()
	svc := UserService{}
	registered := mustRegister(t, "ana", "ana@example.org")

	user, err := svc.Authenticate(ctx, "ana@example.org", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.Id, user.Id)

	_, err = svc.Authenticate(ctx, "ana@example.org", "wrong-password")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.org", "secret1")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestRequireIdentity(t *testing.T) {
	setup(t)
	ctx := context.Background()
	svc := UserService{}
	ana := mustRegister(t, "ana", "ana@example.org")

	user, err := svc.RequireIdentity(ctx, ana.Id, true)
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Handle)

	_, err = svc.RequireIdentity(ctx, 0, false)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	_, err = svc.RequireIdentity(ctx, 4242, true)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestSetAdmin(t *testing.T) {
	setup(t)
	ctx := context.Background()
	svc := UserService{}
	ana := mustRegister(t, "ana", "ana@example.org")

	require.NoError(t, svc.SetAdmin(ctx, "ana@example.org", true))
	user, err := svc.GetUser(ctx, ana.Id)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	require.NoError(t, svc.SetAdmin(ctx, "ana@example.org", false))
	user, err = svc.GetUser(ctx, ana.Id)
	require.NoError(t, err)
	assert.False(t, user.IsAdmin)

	assert.ErrorIs(t, svc.SetAdmin(ctx, "nobody@example.org", true), common.ErrNotFound)

	admin, err := svc.CreateAdmin(ctx, Registration{Handle: "root", Email: "root@example.org", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
}

func TestCreateAdmin(t *testing.T) {
	setup(t)
	ctx := context.Background()
	svc := UserService{}

	user, err := svc.CreateAdmin(ctx, Registration{Handle: "moderadora", Email: "mod@example.org", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	stored, err := svc.GetUser(ctx, user.Id)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)

	_, err = svc.CreateAdmin(ctx, Registration{Handle: "outra", Email: "mod@example.org", Password: "secret1"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}
