package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurlyy/guestbook/pkg/validator"
)

func TestRoleGrants(t *testing.T) {
	assert.True(t, RoleGrants(RoleAdmin, RoleAdmin))
	assert.True(t, RoleGrants(RoleAdmin, RoleUser))
	assert.True(t, RoleGrants(RoleUser, RoleUser))
	assert.False(t, RoleGrants(RoleUser, RoleAdmin))
	assert.False(t, RoleGrants("", RoleUser))
}

func TestUserRoles(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	user := &User{Role: RoleUser}

	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.HasRole(RoleUser))
	assert.False(t, user.IsAdmin())
	assert.True(t, IsValidRole(RoleUser))
	assert.False(t, IsValidRole("ROLE_ROOT"))
}

func TestUserResponseHidesPassword(t *testing.T) {
	u := &User{ID: 1, Email: "a@b.com", PasswordHash: "secret", Role: RoleUser, CreatedAt: time.Now()}
	resp := u.ToResponse()
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "a@b.com", resp.Email)
}

func TestUserCreateRequestValidation(t *testing.T) {
	v := validator.NewValidator()

	assert.NoError(t, v.Validate(UserCreateRequest{Email: "a@b.com", Password: "password1", Role: RoleAdmin}))

	err := v.Validate(UserCreateRequest{Email: "a@b.com", Password: "password1", Role: "ROLE_ROOT"})
	require.Error(t, err)
	ve := err.(validator.ValidationErrors)
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "role", ve.Errors[0].Field)
}

func TestConferenceValidation(t *testing.T) {
	v := validator.NewValidator()

	ok := NewConference()
	ok.City, ok.Year = "Paris", "2024"
	assert.NoError(t, v.ValidateFields(ok.ValidationRules()))

	bad := NewConference()
	bad.City, bad.Year = "P", "24"
	err := v.ValidateFields(bad.ValidationRules())
	require.Error(t, err)
	assert.Len(t, err.(validator.ValidationErrors).Errors, 2)
	assert.Equal(t, "Paris 2024", ok.String())
}

func TestPagination(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 2))
	assert.Equal(t, 1, TotalPages(2, 2))
	assert.Equal(t, 2, TotalPages(3, 2))
	assert.Equal(t, 0, Offset(1, 2))
	assert.Equal(t, 4, Offset(3, 2))
	assert.Equal(t, 0, Offset(0, 30))

	p := NewPagedResponse([]int{1, 2}, 5, 1, 2)
	assert.Equal(t, 3, p.TotalPages)
}
