package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type AuthStore interface {
	FindUserByEmail(email string) (*User, error)
	InsertUser(u *User) error
	GetUser(id string) (*User, error)
}

// TokenSigner issues a bearer token for the given identity.
type TokenSigner func(uid, role, name string, ttl time.Duration) (string, error)

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func() string
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// DefaultTokenTTL is used when no token lifetime is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

func NewAuthService(store AuthStore, signer TokenSigner, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func() string { return "u" + shortID(11) },
		signToken: signer,
		tokenTTL:  tokenTTL,
	}
}

func (s *AuthService) Register(name, email, password, role string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, NewFieldError("name", "name required")
	}
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewFieldError("email", "email/password required")
	}
	if role == "" {
		role = RoleStudent
	}
	if role != RoleStudent && role != RoleCounselor {
		return nil, NewFieldError("role", "role must be student or counselor")
	}
	existing, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{ID: s.idGen(), Name: name, Email: email, PassHash: hash, Role: role, CreatedAt: s.now()}
	if err := s.store.InsertUser(u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewFieldError("email", "email/password required")
	}
	u, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	return s.issue(u)
}

// CurrentUser resolves the authenticated identity for /api/user.
func (s *AuthService) CurrentUser(userID string) (*User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("identity required")
	}
	u, err := s.store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("user not found")
	}
	return u, nil
}

func (s *AuthService) issue(u *User) (*AuthResult, error) {
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(u.ID, u.Role, u.Name, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}
