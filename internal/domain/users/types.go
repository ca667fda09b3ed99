package users

import (
	"context"
	"errors"
	"time"

	"prato/internal/domain/accesscontrol"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("a user with that email already exists")
)

type User struct {
	ID           int64                    `json:"id"`
	FirstName    string                   `json:"first_name"`
	LastName     string                   `json:"last_name"`
	DisplayName  string                   `json:"display_name"`
	Email        string                   `json:"email"`
	Password     password                 `json:"-"`
	Role         accesscontrol.RoleName   `json:"role"`
	IsActive     bool                     `json:"is_active"`
	RefreshToken string                   `json:"-"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// password keeps the plaintext out of reach of encoders; only the bcrypt
// hash is ever persisted.
type password struct {
	text *string
	hash []byte
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

type Store interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// CreateAndInvite stores the user inactive together with a hashed
	// invitation token; Activate consumes the token.
	CreateAndInvite(ctx context.Context, user *User, token string, invitationExp time.Duration) error
	Activate(ctx context.Context, token string) error
	Delete(ctx context.Context, userID int64) error
	SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error
	GetRefreshToken(ctx context.Context, userID int64) (string, error)
	DeleteRefreshToken(ctx context.Context, userID int64) error
	UpdateProfile(ctx context.Context, userID int64, updates map[string]any) error
}
