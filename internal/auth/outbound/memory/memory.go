// Package memory is the in-process store used for local runs and tests. It
// honors the same error contract as the postgres store but loses everything
// on restart and only purges expired rows when they are touched.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
)

type codeKey struct {
	email   string
	purpose entity.Purpose
}

type Store struct {
	mu       sync.Mutex
	codes    map[codeKey]entity.VerificationCode
	accounts map[int64]*entity.Account
	byEmail  map[string]int64
	progress map[int64]*entity.Progress
	grants   map[string]time.Time
}

func New() *Store {
	return &Store{
		codes:    make(map[codeKey]entity.VerificationCode),
		accounts: make(map[int64]*entity.Account),
		byEmail:  make(map[string]int64),
		progress: make(map[int64]*entity.Progress),
		grants:   make(map[string]time.Time),
	}
}

func (s *Store) ReplaceCode(_ context.Context, code entity.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[codeKey{code.Email, code.Purpose}] = code
	return nil
}

func (s *Store) GetActiveCode(_ context.Context, email string, p entity.Purpose, now time.Time) (*entity.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[codeKey{email, p}]
	if !ok || !code.Active(now) {
		return nil, goerror.ErrNotFound
	}
	return &code, nil
}

func (s *Store) PurgeExpiredCodes(_ context.Context, email string, p entity.Purpose, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := codeKey{email, p}
	if code, ok := s.codes[k]; ok && !code.Active(now) {
		delete(s.codes, k)
		return 1, nil
	}
	return 0, nil
}

func (s *Store) DeleteCode(_ context.Context, email string, p entity.Purpose, digest string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.consumeLocked(email, p, digest), nil
}

func (s *Store) consumeLocked(email string, p entity.Purpose, digest string) bool {
	k := codeKey{email, p}
	code, ok := s.codes[k]
	if !ok || code.Digest != digest {
		return false
	}
	delete(s.codes, k)
	return true
}

func (s *Store) deleteCodesLocked(email string) {
	for k := range s.codes {
		if k.email == email {
			delete(s.codes, k)
		}
	}
}

func (s *Store) SweepExpired(_ context.Context, now time.Time) (codes, grants int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, c := range s.codes {
		if !c.Active(now) {
			delete(s.codes, k)
			codes++
		}
	}
	for id, exp := range s.grants {
		if !now.Before(exp) {
			delete(s.grants, id)
			grants++
		}
	}
	return codes, grants, nil
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return cloneAccount(s.accounts[id]), nil
}

func (s *Store) GetAccountByID(_ context.Context, id int64) (*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return cloneAccount(acc), nil
}

func (s *Store) CreateAccount(_ context.Context, in entity.NewAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[in.Email]; exists {
		return goerror.ErrConflict
	}
	if in.CodeDigest != "" && !s.consumeLocked(in.Email, entity.PurposeSignup, in.CodeDigest) {
		return goerror.ErrNotFound
	}

	s.accounts[in.ID] = &entity.Account{
		ID:            in.ID,
		Name:          in.Name,
		Email:         in.Email,
		PasswordHash:  in.PasswordHash,
		EmailVerified: true,
		Settings:      in.Settings.Clone(),
		Streak:        entity.DefaultStreak,
		JoinDate:      in.Now,
		LastLogin:     in.Now,
		CreatedAt:     in.Now,
		UpdatedAt:     in.Now,
	}
	s.byEmail[in.Email] = in.ID
	s.progress[in.ID] = &entity.Progress{AccountID: in.ID, Streak: entity.DefaultStreak, UpdatedAt: in.Now}

	return nil
}

func (s *Store) ResetPassword(_ context.Context, in entity.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, used := s.grants[in.GrantID]; used {
		return goerror.ErrConflict
	}

	id, ok := s.byEmail[in.Email]
	if !ok {
		return goerror.ErrNotFound
	}

	acc := s.accounts[id]
	acc.PasswordHash = in.PasswordHash
	acc.UpdatedAt = in.Now
	s.grants[in.GrantID] = in.GrantExpiresAt
	s.deleteCodesLocked(in.Email)

	return nil
}

func (s *Store) UpdateLogin(_ context.Context, id int64, at time.Time, streak int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return goerror.ErrNotFound
	}
	acc.LastLogin = at
	acc.Streak = streak
	acc.UpdatedAt = at
	if p, ok := s.progress[id]; ok {
		p.Streak = streak
	}
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, in entity.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[in.ID]
	if !ok {
		return goerror.ErrNotFound
	}
	if in.Name != nil {
		acc.Name = *in.Name
	}
	if in.Avatar != nil {
		acc.Avatar = nil
		if *in.Avatar != "" {
			acc.Avatar = ptr(*in.Avatar)
		}
	}
	if in.Settings != nil {
		acc.Settings = in.Settings.Clone()
	}
	acc.UpdatedAt = in.UpdatedAt
	return nil
}

func (s *Store) GetProgress(_ context.Context, id int64) (*entity.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.progress[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	out := *p
	return &out, nil
}

// CodeCount is used by tests to assert nothing was stored.
func (s *Store) CodeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.codes)
}

func cloneAccount(a *entity.Account) *entity.Account {
	out := *a
	out.Settings = maps.Clone(a.Settings)
	if a.Avatar != nil {
		out.Avatar = ptr(*a.Avatar)
	}
	return &out
}

func ptr[T any](v T) *T { return &v }
