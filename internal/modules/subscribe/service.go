package subscribe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/project-delta/newsletter/internal/models"
	"github.com/project-delta/newsletter/internal/pkg/verification"
	"go.uber.org/zap"
)

// Lifecycle errors, mapped to HTTP statuses at the handler boundary.
var (
	ErrAlreadySubscribed = errors.New("address already subscribed")
	ErrAlreadyVerified   = errors.New("address already verified")
	ErrNotFound          = errors.New("subscriber not found")
	ErrSecretMismatch    = errors.New("secret mismatch")
	ErrSecretExpired     = errors.New("secret expired")
)

// Mailer is the transactional mail surface the lifecycle needs.
type Mailer interface {
	SendVerification(to, confirmURL, code string) error
	SendConfirmed(to string) error
	SendUnsubscribeCode(to, code string) error
	SendFarewell(to string) error
}

// Service implements the subscribe → verify → unsubscribe lifecycle.
type Service struct {
	store   Store
	mail    Mailer
	log     *zap.Logger
	baseURL string
	now     func() time.Time
}

func NewService(store Store, mail Mailer, log *zap.Logger, baseURL string) *Service {
	return &Service{
		store:   store,
		mail:    mail,
		log:     log,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Subscribe issues a fresh secret pair for the address and mails the
// verification message. An existing unverified record is overwritten, so at
// most one secret pair is live per address. A mail failure after the record
// is persisted is returned as-is; the record is not rolled back and the user
// recovers by subscribing again.
func (s *Service) Subscribe(ctx context.Context, address string) error {
	existing, err := s.store.FindByAddress(ctx, address)
	if err != nil {
		return fmt.Errorf("find subscriber: %w", err)
	}
	if existing != nil && existing.Verified {
		return ErrAlreadySubscribed
	}

	token, err := verification.Token()
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	code, err := verification.Code()
	if err != nil {
		return fmt.Errorf("issue code: %w", err)
	}

	if err := s.store.UpsertPending(ctx, address, token, code, s.now()); err != nil {
		return fmt.Errorf("persist pending subscriber: %w", err)
	}

	confirmURL, err := s.buildConfirmURL(token)
	if err != nil {
		return err
	}
	if err := s.mail.SendVerification(address, confirmURL, code); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	s.log.Info("verification sent", zap.String("address", address))
	return nil
}

// ConfirmToken consumes a link token. The token lookup implicitly proves
// possession; consumption and the verified transition are one atomic store
// operation, so a replayed token can only miss.
func (s *Service) ConfirmToken(ctx context.Context, token string) (*models.Subscriber, error) {
	sub, err := s.store.MarkVerifiedByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("consume token: %w", err)
	}
	if sub == nil {
		return nil, ErrNotFound
	}

	if err := s.mail.SendConfirmed(sub.Address); err != nil {
		s.log.Warn("confirmation receipt mail failed", zap.String("address", sub.Address), zap.Error(err))
	}
	s.log.Info("subscription verified", zap.String("address", sub.Address))
	return sub, nil
}

// VerifyCode consumes a numeric code for the address. Re-verifying an
// already-verified address is a conflict, not a success.
func (s *Service) VerifyCode(ctx context.Context, address, code string) error {
	sub, err := s.store.FindByAddress(ctx, address)
	if err != nil {
		return fmt.Errorf("find subscriber: %w", err)
	}
	if sub == nil {
		return ErrNotFound
	}
	if sub.Verified {
		return ErrAlreadyVerified
	}
	if sub.Code == "" || sub.Code != code {
		return ErrSecretMismatch
	}
	if verification.Expired(sub.SecretIssuedAt, s.now()) {
		return ErrSecretExpired
	}

	ok, err := s.store.MarkVerifiedByCode(ctx, address, code)
	if err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	if !ok {
		// lost a race: the secret was consumed or replaced in between
		return ErrSecretMismatch
	}

	if err := s.mail.SendConfirmed(address); err != nil {
		s.log.Warn("confirmation receipt mail failed", zap.String("address", address), zap.Error(err))
	}
	s.log.Info("subscription verified", zap.String("address", address))
	return nil
}

// Unsubscribe deletes the record for address unconditionally.
func (s *Service) Unsubscribe(ctx context.Context, address string) error {
	ok, err := s.store.DeleteByAddress(ctx, address)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.log.Info("unsubscribed", zap.String("address", address))
	return nil
}

// RequestUnsubscribe issues a one-time unsubscribe code for a verified
// subscriber and mails it.
func (s *Service) RequestUnsubscribe(ctx context.Context, address string) error {
	code, err := verification.Code()
	if err != nil {
		return fmt.Errorf("issue code: %w", err)
	}

	ok, err := s.store.SetUnsubscribeCode(ctx, address, code, s.now())
	if err != nil {
		return fmt.Errorf("persist unsubscribe code: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	if err := s.mail.SendUnsubscribeCode(address, code); err != nil {
		return fmt.Errorf("send unsubscribe code mail: %w", err)
	}
	s.log.Info("unsubscribe code sent", zap.String("address", address))
	return nil
}

// ConfirmUnsubscribe deletes the record if the pending code matches. The
// farewell mail is best-effort and never blocks the deletion.
func (s *Service) ConfirmUnsubscribe(ctx context.Context, address, code string) error {
	sub, err := s.store.FindByAddress(ctx, address)
	if err != nil {
		return fmt.Errorf("find subscriber: %w", err)
	}
	if sub == nil {
		return ErrNotFound
	}
	if sub.UnsubscribeCode == "" || sub.UnsubscribeCode != code {
		return ErrSecretMismatch
	}
	if verification.Expired(sub.SecretIssuedAt, s.now()) {
		return ErrSecretExpired
	}

	ok, err := s.store.DeleteByUnsubscribeCode(ctx, address, code)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	if !ok {
		return ErrSecretMismatch
	}

	if err := s.mail.SendFarewell(address); err != nil {
		s.log.Warn("farewell mail failed", zap.String("address", address), zap.Error(err))
	}
	s.log.Info("unsubscribed", zap.String("address", address))
	return nil
}

func (s *Service) buildConfirmURL(token string) (string, error) {
	base := strings.TrimSpace(s.baseURL)
	if base == "" {
		return "", fmt.Errorf("confirm base url is not configured")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid confirm base url")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/confirm"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
