package subscribe

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/project-delta/newsletter/internal/models"
	"github.com/project-delta/newsletter/internal/pkg/verification"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory Store with the same transition semantics as the
// Mongo implementation.
type memStore struct {
	mu   sync.Mutex
	subs map[string]*models.Subscriber
}

func newMemStore() *memStore {
	return &memStore{subs: make(map[string]*models.Subscriber)}
}

func (m *memStore) FindByAddress(_ context.Context, address string) (*models.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[address]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (m *memStore) UpsertPending(_ context.Context, address, token, code string, issuedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[address]
	if !ok {
		sub = &models.Subscriber{Address: address, CreatedAt: issuedAt}
		m.subs[address] = sub
	}
	sub.Verified = false
	sub.Token = token
	sub.Code = code
	sub.SecretIssuedAt = issuedAt
	sub.UpdatedAt = issuedAt
	return nil
}

func (m *memStore) MarkVerifiedByToken(_ context.Context, token string) (*models.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token == "" {
		return nil, nil
	}
	for _, sub := range m.subs {
		if !sub.Verified && sub.Token == token {
			sub.Verified = true
			sub.Token = ""
			sub.Code = ""
			sub.SecretIssuedAt = time.Time{}
			cp := *sub
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) MarkVerifiedByCode(_ context.Context, address, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[address]
	if !ok || sub.Verified || code == "" || sub.Code != code {
		return false, nil
	}
	sub.Verified = true
	sub.Token = ""
	sub.Code = ""
	sub.SecretIssuedAt = time.Time{}
	return true, nil
}

func (m *memStore) SetUnsubscribeCode(_ context.Context, address, code string, issuedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[address]
	if !ok || !sub.Verified {
		return false, nil
	}
	sub.UnsubscribeCode = code
	sub.SecretIssuedAt = issuedAt
	sub.UpdatedAt = issuedAt
	return true, nil
}

func (m *memStore) DeleteByAddress(_ context.Context, address string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[address]; !ok {
		return false, nil
	}
	delete(m.subs, address)
	return true, nil
}

func (m *memStore) DeleteByUnsubscribeCode(_ context.Context, address, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[address]
	if !ok || code == "" || sub.UnsubscribeCode != code {
		return false, nil
	}
	delete(m.subs, address)
	return true, nil
}

func (m *memStore) ListVerified(_ context.Context) ([]models.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Subscriber
	for _, sub := range m.subs {
		if sub.Verified {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *memStore) get(address string) *models.Subscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[address]
}

// recordingMailer records every send and can be told to fail.
type recordingMailer struct {
	mu            sync.Mutex
	verifications []sentVerification
	confirmed     []string
	unsubCodes    []sentVerification
	farewells     []string

	failVerification error
	failConfirmed    error
}

type sentVerification struct {
	to, url, code string
}

func (r *recordingMailer) SendVerification(to, confirmURL, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failVerification != nil {
		return r.failVerification
	}
	r.verifications = append(r.verifications, sentVerification{to, confirmURL, code})
	return nil
}

func (r *recordingMailer) SendConfirmed(to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failConfirmed != nil {
		return r.failConfirmed
	}
	r.confirmed = append(r.confirmed, to)
	return nil
}

func (r *recordingMailer) SendUnsubscribeCode(to, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubCodes = append(r.unsubCodes, sentVerification{to: to, code: code})
	return nil
}

func (r *recordingMailer) SendFarewell(to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.farewells = append(r.farewells, to)
	return nil
}

func newTestService(t *testing.T) (*Service, *memStore, *recordingMailer) {
	t.Helper()
	store := newMemStore()
	mailer := &recordingMailer{}
	svc := NewService(store, mailer, zap.NewNop(), "https://news.example.com")
	return svc, store, mailer
}

func TestSubscribeIssuesSecretAndMails(t *testing.T) {
	svc, store, mailer := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))

	sub := store.get("a@x.com")
	require.NotNil(t, sub)
	require.False(t, sub.Verified)
	require.NotEmpty(t, sub.Token)
	require.NotEmpty(t, sub.Code)

	require.Len(t, mailer.verifications, 1)
	sent := mailer.verifications[0]
	require.Equal(t, "a@x.com", sent.to)
	require.Equal(t, sub.Code, sent.code)
	require.Contains(t, sent.url, "https://news.example.com/confirm?token="+sub.Token)
}

func TestSubscribeTwiceReplacesSecret(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))
	firstToken := store.get("a@x.com").Token
	firstCode := store.get("a@x.com").Code

	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))
	sub := store.get("a@x.com")
	require.NotEqual(t, firstToken, sub.Token)

	// the superseded secrets are dead
	require.ErrorIs(t, svc.VerifyCode(ctx, "a@x.com", firstCode), ErrSecretMismatch)
	_, err := svc.ConfirmToken(ctx, firstToken)
	require.ErrorIs(t, err, ErrNotFound)

	// the live one works
	require.NoError(t, svc.VerifyCode(ctx, "a@x.com", sub.Code))
	require.True(t, store.get("a@x.com").Verified)
}

func TestResubscribeRestartsExpiryWindow(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	t0 := time.Now()
	svc.now = func() time.Time { return t0 }
	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))
	require.Equal(t, t0, store.get("a@x.com").SecretIssuedAt)

	// re-subscribing late in the window must reset the purge clock, so the
	// freshly mailed secret lives its full advertised lifetime
	later := t0.Add(55 * time.Minute)
	svc.now = func() time.Time { return later }
	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))
	require.Equal(t, later, store.get("a@x.com").SecretIssuedAt)

	// the new code is still good well past the first record's horizon
	svc.now = func() time.Time { return later.Add(10 * time.Minute) }
	require.NoError(t, svc.VerifyCode(ctx, "a@x.com", store.get("a@x.com").Code))
}

func TestSubscribeAlreadyVerified(t *testing.T) {
	svc, store, mailer := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))
	require.NoError(t, svc.VerifyCode(ctx, "a@x.com", store.get("a@x.com").Code))

	sent := len(mailer.verifications)
	require.ErrorIs(t, svc.Subscribe(ctx, "a@x.com"), ErrAlreadySubscribed)
	require.Len(t, mailer.verifications, sent, "no new mail for a verified address")
}

func TestSubscribeMailFailureKeepsRecord(t *testing.T) {
	svc, store, mailer := newTestService(t)
	mailer.failVerification = context.DeadlineExceeded

	err := svc.Subscribe(context.Background(), "a@x.com")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAlreadySubscribed)
	// accepted inconsistency window: persisted but unmailed
	require.NotNil(t, store.get("a@x.com"))
}

func TestVerifyCodeLifecycle(t *testing.T) {
	svc, store, mailer := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))
	right := store.get("a@x.com").Code
	wrong := "000000"
	if right == wrong {
		wrong = "000001"
	}

	// wrong code never mutates
	require.ErrorIs(t, svc.VerifyCode(ctx, "a@x.com", wrong), ErrSecretMismatch)
	sub := store.get("a@x.com")
	require.False(t, sub.Verified)
	require.Equal(t, right, sub.Code)

	// right code flips and clears
	require.NoError(t, svc.VerifyCode(ctx, "a@x.com", right))
	sub = store.get("a@x.com")
	require.True(t, sub.Verified)
	require.Empty(t, sub.Code)
	require.Empty(t, sub.Token)
	require.Equal(t, []string{"a@x.com"}, mailer.confirmed)

	// secrets are single-use
	require.ErrorIs(t, svc.VerifyCode(ctx, "a@x.com", right), ErrAlreadyVerified)
}

func TestVerifyCodeUnknownAddress(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.ErrorIs(t, svc.VerifyCode(context.Background(), "nobody@x.com", "123456"), ErrNotFound)
}

func TestVerifyCodeExpired(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))
	code := store.get("a@x.com").Code

	svc.now = func() time.Time { return time.Now().Add(verification.CodeTTL + time.Minute) }
	require.ErrorIs(t, svc.VerifyCode(ctx, "a@x.com", code), ErrSecretExpired)
	require.False(t, store.get("a@x.com").Verified)
}

func TestConfirmToken(t *testing.T) {
	svc, store, mailer := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))
	token := store.get("a@x.com").Token

	sub, err := svc.ConfirmToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", sub.Address)
	require.True(t, store.get("a@x.com").Verified)
	require.Empty(t, store.get("a@x.com").Token)
	require.Equal(t, []string{"a@x.com"}, mailer.confirmed)

	// consumed token cannot be replayed
	_, err = svc.ConfirmToken(ctx, token)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmTokenUnknown(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ConfirmToken(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUnsubscribe(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.Unsubscribe(ctx, "nobody@x.com"), ErrNotFound)

	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))
	require.NoError(t, svc.Unsubscribe(ctx, "a@x.com"))
	require.Nil(t, store.get("a@x.com"))
}

func TestRequestAndConfirmUnsubscribe(t *testing.T) {
	svc, store, mailer := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))

	// pending subscribers cannot request an unsubscribe code
	require.ErrorIs(t, svc.RequestUnsubscribe(ctx, "a@x.com"), ErrNotFound)

	require.NoError(t, svc.VerifyCode(ctx, "a@x.com", store.get("a@x.com").Code))
	require.NoError(t, svc.RequestUnsubscribe(ctx, "a@x.com"))

	require.Len(t, mailer.unsubCodes, 1)
	code := mailer.unsubCodes[0].code
	require.Equal(t, code, store.get("a@x.com").UnsubscribeCode)

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	require.ErrorIs(t, svc.ConfirmUnsubscribe(ctx, "a@x.com", wrong), ErrSecretMismatch)
	require.NotNil(t, store.get("a@x.com"), "wrong code must not delete")

	require.NoError(t, svc.ConfirmUnsubscribe(ctx, "a@x.com", code))
	require.Nil(t, store.get("a@x.com"))
	require.Equal(t, []string{"a@x.com"}, mailer.farewells)
}

func TestConfirmUnsubscribeExpired(t *testing.T) {
	svc, store, mailer := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "a@x.com"))
	require.NoError(t, svc.VerifyCode(ctx, "a@x.com", store.get("a@x.com").Code))
	require.NoError(t, svc.RequestUnsubscribe(ctx, "a@x.com"))
	code := mailer.unsubCodes[0].code

	svc.now = func() time.Time { return time.Now().Add(verification.CodeTTL + time.Minute) }
	require.ErrorIs(t, svc.ConfirmUnsubscribe(ctx, "a@x.com", code), ErrSecretExpired)
	require.NotNil(t, store.get("a@x.com"))
}

func TestConfirmUnsubscribeUnknownAddress(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.ErrorIs(t, svc.ConfirmUnsubscribe(context.Background(), "nobody@x.com", "123456"), ErrNotFound)
}
