package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/config"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/notify"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/credkeeper/internal/server/secrets"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory account store and revocation ledger with the same
// uniqueness and version rules as the Postgres schema.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	revoked  map[string]struct{}

	// failNextUpdate forces one version conflict.
	failNextUpdate bool
}

func newMemStore() *memStore {
	return &memStore{accounts: map[string]*models.Account{}, revoked: map[string]struct{}{}}
}

func (m *memStore) get(id string) *models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil
	}
	return a.Clone()
}

func (m *memStore) put(a *models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a.Clone()
}

func (m *memStore) FindByID(_ context.Context, id string) (*models.Account, error) {
	if a := m.get(id); a != nil {
		return a, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memStore) findBy(match func(a *models.Account) bool) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if match(a) {
			return a.Clone(), nil
		}
	}
	return nil, common.ErrorNotFound
}

func eq(p *string, v string) bool {
	return p != nil && v != "" && *p == v
}

func (m *memStore) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	return m.findBy(func(a *models.Account) bool { return a.Username == username })
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	return m.findBy(func(a *models.Account) bool { return eq(a.Email, email) })
}

func (m *memStore) FindByToken(_ context.Context, kind accounts.TokenKind, value string) (*models.Account, error) {
	return m.findBy(func(a *models.Account) bool {
		switch kind {
		case accounts.TokenRefresh:
			return eq(a.RefreshToken, value)
		case accounts.TokenVerification:
			return eq(a.VerificationToken, value)
		default:
			return eq(a.ResetToken, value)
		}
	})
}

func (m *memStore) EmailInUse(_ context.Context, email, exceptID string) (bool, error) {
	_, err := m.findBy(func(a *models.Account) bool {
		return a.ID != exceptID && (eq(a.Email, email) || eq(a.PendingEmail, email))
	})
	return err == nil, nil
}

// checkUnique must be called with mu held.
func (m *memStore) checkUnique(c *models.Account) error {
	for _, a := range m.accounts {
		if a.ID == c.ID {
			continue
		}
		if a.Username == c.Username {
			return common.ErrDuplicateUsername
		}
		if c.Email != nil && eq(a.Email, *c.Email) {
			return common.ErrDuplicateEmail
		}
		if c.PendingEmail != nil && eq(a.PendingEmail, *c.PendingEmail) {
			return common.ErrDuplicateEmail
		}
	}
	return nil
}

func (m *memStore) Insert(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkUnique(a); err != nil {
		return err
	}
	now := time.Now()
	a.Version = 1
	a.CreatedAt = now
	a.UpdatedAt = now
	m.accounts[a.ID] = a.Clone()
	return nil
}

func (m *memStore) UpdateIfMatches(_ context.Context, a *models.Account, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.accounts[a.ID]
	if !ok || cur.Version != expected {
		return common.ErrVersionConflict
	}
	if m.failNextUpdate {
		m.failNextUpdate = false
		cur.Version++
		return common.ErrVersionConflict
	}
	if err := m.checkUnique(a); err != nil {
		return err
	}
	a.Version = expected + 1
	a.UpdatedAt = time.Now()
	m.accounts[a.ID] = a.Clone()
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.accounts, id)
	return nil
}

type memRevocations struct{ m *memStore }

func (r memRevocations) Insert(_ context.Context, digest string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.revoked[digest] = struct{}{}
	return nil
}

func (r memRevocations) Exists(_ context.Context, digest string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_, ok := r.m.revoked[digest]
	return ok, nil
}

type fakeRepoManager struct{ store *memStore }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (f *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository { return f.store }

func (f *fakeRepoManager) Revocations(dbx.DBTX) revocations.Repository {
	return memRevocations{m: f.store}
}

// plainHasher keeps tests fast; it is not a real hash.
type plainHasher struct{}

func (plainHasher) Hash(secret string) (string, error) { return "plain$" + secret, nil }

func (plainHasher) Verify(secret, digest string) bool { return digest == "plain$"+secret }

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *recordingMailer) Enqueue(msg notify.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return true
}

func (r *recordingMailer) last(t *testing.T) notify.Message {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.sent)
	return r.sent[len(r.sent)-1]
}

func (r *recordingMailer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

// tokenFromLink extracts the token query value of the last mailed link.
func tokenFromLink(t *testing.T, msg notify.Message) string {
	t.Helper()
	link, ok := msg.Data["Link"].(string)
	require.True(t, ok, "message has no link")
	i := strings.Index(link, "?token=")
	require.GreaterOrEqual(t, i, 0)
	return link[i+len("?token="):]
}

type harness struct {
	svc    *AuthService
	store  *memStore
	mailer *recordingMailer
	mock   sqlmock.Sqlmock
}

func newHarness(t *testing.T, tweak ...func(cfg *config.Config)) *harness {
	t.Helper()
	return newHarnessWithHasher(t, plainHasher{}, tweak...)
}

// newHarnessWithHasher is newHarness backed by a real hasher.
func newHarnessWithHasher(t *testing.T, hasher secrets.Hasher, tweak ...func(cfg *config.Config)) *harness {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	for _, fn := range tweak {
		fn(cfg)
	}

	store := newMemStore()
	mailer := &recordingMailer{}
	svc := NewAuthService(db, &fakeRepoManager{store: store}, hasher, mailer, logging.Nop(), cfg)

	return &harness{svc: svc, store: store, mailer: mailer, mock: mock}
}

// expectTx primes the mock for one committed transaction.
func (h *harness) expectTx() {
	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
}

// expectRollback primes the mock for one rolled back transaction.
func (h *harness) expectRollback() {
	h.mock.ExpectBegin()
	h.mock.ExpectRollback()
}

// registerVerified registers an account with an email and verifies it.
func (h *harness) registerVerified(t *testing.T, username, email string) *RegisterResult {
	t.Helper()
	ctx := context.Background()
	res, err := h.svc.Register(ctx, RegisterInput{Username: username, Password: "password1", Email: email})
	require.NoError(t, err)
	_, err = h.svc.VerifyEmail(ctx, tokenFromLink(t, h.mailer.last(t)))
	require.NoError(t, err)
	return res
}
