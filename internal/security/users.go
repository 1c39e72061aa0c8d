package security

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role permissions. Tokens carry the expanded list in their perms claim.
var rolePerms = map[string][]string{
	"admin": {
		"orders.read", "orders.write",
		"warranties.read", "warranties.write",
		"suppliers.read", "suppliers.write",
		"products.read", "products.write",
	},
	"manager": {
		"orders.read", "orders.write",
		"warranties.read", "warranties.write",
		"suppliers.read",
		"products.read",
	},
	"viewer": {"orders.read", "warranties.read", "suppliers.read", "products.read"},
}

var ErrInvalidCredentials = errors.New("invalid credentials")

// Account is a dashboard login as configured.
type Account struct {
	Email    string
	Password string
	FullName string
	Role     string
}

type User struct {
	Email    string
	FullName string
	Role     string
	Perms    []string
	hash     []byte
}

// UserStore holds bcrypt hashes of the configured accounts.
type UserStore struct {
	users map[string]User
}

func NewUserStore(accounts []Account, cost int) (*UserStore, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	s := &UserStore{users: make(map[string]User, len(accounts))}
	for _, a := range accounts {
		perms, ok := rolePerms[a.Role]
		if !ok {
			return nil, fmt.Errorf("user %s: unknown role %q", a.Email, a.Role)
		}
		if a.Email == "" || a.Password == "" {
			return nil, fmt.Errorf("user %q: email and password required", a.Email)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", a.Email, err)
		}
		key := strings.ToLower(a.Email)
		s.users[key] = User{Email: key, FullName: a.FullName, Role: a.Role, Perms: perms, hash: hash}
	}
	return s, nil
}

// Authenticate checks the password against the stored hash. Unknown users and
// wrong passwords return the same error.
func (s *UserStore) Authenticate(email, password string) (User, error) {
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}
