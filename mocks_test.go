package taskverse_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	taskverse "github.com/taskverse/client-go"
)

// MockAuthProvider implements taskverse.AuthProvider
type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) SignIn(ctx context.Context, email, password string) (*taskverse.Account, error) {
	args := m.Called(ctx, email, password)
	acct, _ := args.Get(0).(*taskverse.Account)
	return acct, args.Error(1)
}

func (m *MockAuthProvider) SignInWithIDP(ctx context.Context, cred taskverse.IDPCredential) (*taskverse.Account, error) {
	args := m.Called(ctx, cred)
	acct, _ := args.Get(0).(*taskverse.Account)
	return acct, args.Error(1)
}

func (m *MockAuthProvider) SignUp(ctx context.Context, email, password string) (*taskverse.Account, error) {
	args := m.Called(ctx, email, password)
	acct, _ := args.Get(0).(*taskverse.Account)
	return acct, args.Error(1)
}

func (m *MockAuthProvider) UpdateProfile(ctx context.Context, cred taskverse.Credential, displayName, photoURL string) (*taskverse.Account, error) {
	args := m.Called(ctx, cred, displayName, photoURL)
	acct, _ := args.Get(0).(*taskverse.Account)
	return acct, args.Error(1)
}

func (m *MockAuthProvider) Refresh(ctx context.Context, refreshToken string) (*taskverse.Account, error) {
	args := m.Called(ctx, refreshToken)
	acct, _ := args.Get(0).(*taskverse.Account)
	return acct, args.Error(1)
}

// MemCredentialStore is an in-memory taskverse.CredentialStore
type MemCredentialStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemCredentialStore) SavedCredential() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemCredentialStore) SaveCredential(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemCredentialStore) ClearCredential() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// FakeInteractive implements taskverse.InteractiveSignIn
type FakeInteractive struct {
	Cred taskverse.IDPCredential
	Err  error
}

func (f FakeInteractive) Run(ctx context.Context) (taskverse.IDPCredential, error) {
	return f.Cred, f.Err
}
