package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserStore_Authenticate(t *testing.T) {
	s, err := NewUserStore([]Account{
		{Email: "Admin@Store.com", Password: "admin123", FullName: "Store Administrator", Role: "admin"},
		{Email: "viewer@store.com", Password: "viewer123", Role: "viewer"},
	}, bcrypt.MinCost)
	require.NoError(t, err)

	u, err := s.Authenticate("admin@store.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
	assert.Contains(t, u.Perms, "suppliers.write")

	u, err = s.Authenticate("viewer@store.com", "viewer123")
	require.NoError(t, err)
	assert.NotContains(t, u.Perms, "orders.write")
	assert.Contains(t, u.Perms, "products.read")
	assert.NotContains(t, u.Perms, "products.write")

	_, err = s.Authenticate("admin@store.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate("ghost@store.com", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewUserStore_RejectsBadAccounts(t *testing.T) {
	_, err := NewUserStore([]Account{{Email: "a@b.c", Password: "x", Role: "root"}}, bcrypt.MinCost)
	assert.ErrorContains(t, err, "unknown role")

	_, err = NewUserStore([]Account{{Email: "a@b.c", Role: "viewer"}}, bcrypt.MinCost)
	assert.ErrorContains(t, err, "password required")
}
