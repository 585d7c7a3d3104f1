package services

import (
	"context"
	"sync"
	"time"

	"github.com/tourbook/tourbook/internal/models"
	pkgauth "github.com/tourbook/tourbook/pkg/auth"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc                     func(ctx context.Context, user *models.User) (*models.User, error)
	GetByIDFunc                    func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc                 func(ctx context.Context, email string) (*models.User, error)
	GetByVerificationTokenHashFunc func(ctx context.Context, tokenHash string) (*models.User, error)
	GetByResetTokenHashFunc        func(ctx context.Context, tokenHash string) (*models.User, error)
	ListFunc                       func(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateProfileFunc              func(ctx context.Context, id string, name, email, photo string) (*models.User, error)
	UpdateRoleFunc                 func(ctx context.Context, id, role string) (*models.User, error)
	DeactivateFunc                 func(ctx context.Context, id string) error
	DeleteFunc                     func(ctx context.Context, id string) error
	SetVerificationTokenFunc       func(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	MarkEmailVerifiedFunc          func(ctx context.Context, id string) error
	SetResetTokenFunc              func(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ClearResetTokenFunc            func(ctx context.Context, id string) error
	UpdatePasswordFunc             func(ctx context.Context, id, passwordHash string, changedAt time.Time) error
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	if m.GetByVerificationTokenHashFunc != nil {
		return m.GetByVerificationTokenHashFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	if m.GetByResetTokenHashFunc != nil {
		return m.GetByResetTokenHashFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id string, name, email, photo string) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, name, email, photo)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id, role string) (*models.User, error) {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, id, role)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	if m.SetVerificationTokenFunc != nil {
		return m.SetVerificationTokenFunc(ctx, id, tokenHash, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	if m.MarkEmailVerifiedFunc != nil {
		return m.MarkEmailVerifiedFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	if m.SetResetTokenFunc != nil {
		return m.SetResetTokenFunc(ctx, id, tokenHash, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) ClearResetToken(ctx context.Context, id string) error {
	if m.ClearResetTokenFunc != nil {
		return m.ClearResetTokenFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash, changedAt)
	}
	return nil
}

// MockMailer implements Mailer and records every send.
type MockMailer struct {
	SendFunc func(ctx context.Context, kind MessageKind, recipient, displayName, url string) error
	Sent     []SentMessage
	mu       sync.Mutex
}

type SentMessage struct {
	Kind        MessageKind
	Recipient   string
	DisplayName string
	URL         string
}

func (m *MockMailer) Send(ctx context.Context, kind MessageKind, recipient, displayName, url string) error {
	m.mu.Lock()
	m.Sent = append(m.Sent, SentMessage{Kind: kind, Recipient: recipient, DisplayName: displayName, URL: url})
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, kind, recipient, displayName, url)
	}
	return nil
}

// NewTestUser builds a verified, active user with the given password.
func NewTestUser(id, email, name, password string) *models.User {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return &models.User{
		ID:            id,
		Name:          name,
		Email:         email,
		Photo:         "default.jpg",
		PasswordHash:  hash,
		Role:          models.RoleUser,
		EmailVerified: true,
		Active:        true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}
