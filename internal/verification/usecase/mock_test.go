package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
	"github.com/shandysiswandi/titipyuk/internal/verification/entity"
)

type mockRepoDB struct{ mock.Mock }

func (m *mockRepoDB) GetPrincipalByEmail(ctx context.Context, email string) (*entity.Principal, error) {
	args := m.Called(ctx, email)
	p, _ := args.Get(0).(*entity.Principal)
	return p, args.Error(1)
}

func (m *mockRepoDB) GetLatestTokenByEmail(ctx context.Context, email string) (*entity.OTPToken, error) {
	args := m.Called(ctx, email)
	t, _ := args.Get(0).(*entity.OTPToken)
	return t, args.Error(1)
}

func (m *mockRepoDB) GetActiveTokensByEmail(ctx context.Context, email string, now time.Time, limit int) ([]entity.OTPToken, error) {
	args := m.Called(ctx, email, now, limit)
	t, _ := args.Get(0).([]entity.OTPToken)
	return t, args.Error(1)
}

func (m *mockRepoDB) CreateToken(ctx context.Context, token entity.OTPToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockRepoDB) IncrementAttempts(ctx context.Context, tokenID int64) (int32, error) {
	args := m.Called(ctx, tokenID)
	n, _ := args.Get(0).(int32)
	return n, args.Error(1)
}

func (m *mockRepoDB) MarkTokenUsedAndVerify(ctx context.Context, tokenID, principalID int64, now time.Time) error {
	return m.Called(ctx, tokenID, principalID, now).Error(0)
}

type mockRepoMessaging struct{ mock.Mock }

func (m *mockRepoMessaging) PublishCodeIssued(ctx context.Context, msg entity.IssuedCode) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockRepoMessaging) PublishEmailVerified(ctx context.Context, msg entity.VerifiedEmail) error {
	return m.Called(ctx, msg).Error(0)
}

// fakeMail records sent codes and fails with err when set.
type fakeMail struct {
	mu   sync.Mutex
	sent []CodeMail
	err  error
}

func (f *fakeMail) SendCode(ctx context.Context, msg CodeMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.err
}

func (f *fakeMail) last() CodeMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

// memStore is an in-memory repoDB with the same conditional update rules as
// the postgres store.
type memStore struct {
	mu         sync.Mutex
	principals map[string]*entity.Principal
	tokens     []entity.OTPToken
}

func newMemStore(principals ...entity.Principal) *memStore {
	s := &memStore{principals: map[string]*entity.Principal{}}
	for i := range principals {
		p := principals[i]
		s.principals[p.Email] = &p
	}
	return s
}

func (s *memStore) GetPrincipalByEmail(_ context.Context, email string) (*entity.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.principals[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) GetLatestTokenByEmail(_ context.Context, email string) (*entity.OTPToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.tokens) - 1; i >= 0; i-- {
		if s.tokens[i].Email == email {
			t := s.tokens[i]
			return &t, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (s *memStore) GetActiveTokensByEmail(_ context.Context, email string, now time.Time, limit int) ([]entity.OTPToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.OTPToken
	for i := len(s.tokens) - 1; i >= 0 && len(out) < limit; i-- {
		if s.tokens[i].Email == email && s.tokens[i].IsActive(now) {
			out = append(out, s.tokens[i])
		}
	}
	return out, nil
}

func (s *memStore) CreateToken(_ context.Context, token entity.OTPToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = append(s.tokens, token)
	return nil
}

func (s *memStore) IncrementAttempts(_ context.Context, tokenID int64) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tokens {
		t := &s.tokens[i]
		if t.ID == tokenID && t.Attempts < t.MaxAttempts && t.UsedAt == nil {
			t.Attempts++
			return t.Attempts, nil
		}
	}
	return 0, goerror.ErrNotFound
}

func (s *memStore) MarkTokenUsedAndVerify(_ context.Context, tokenID, principalID int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tokens {
		t := &s.tokens[i]
		if t.ID != tokenID {
			continue
		}
		if t.UsedAt != nil {
			return goerror.ErrConflict
		}
		t.UsedAt = &now
		for _, p := range s.principals {
			if p.ID == principalID {
				p.EmailVerified = true
			}
		}
		return nil
	}
	return goerror.ErrConflict
}

func (s *memStore) tokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

type seqID struct {
	mu   sync.Mutex
	next int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

type staticCode struct {
	code string
	err  error
}

func (s staticCode) Generate() (string, error) { return s.code, s.err }
