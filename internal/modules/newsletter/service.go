package newsletter

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/project-delta/newsletter/internal/models"
	"github.com/project-delta/newsletter/internal/pkg/markdown"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Audience lists broadcast recipients.
type Audience interface {
	ListVerified(ctx context.Context) ([]models.Subscriber, error)
}

// Mailer is the outbound surface the broadcast needs.
type Mailer interface {
	SendNewsletter(to, subject, html string) error
	SendTest(to string) error
}

// Service fans a newsletter issue out to every verified subscriber.
type Service struct {
	audience Audience
	mail     Mailer
	log      *zap.Logger

	// testRecipient is where GET /test-mail probes land (the from-address).
	testRecipient string
}

func NewService(audience Audience, mail Mailer, log *zap.Logger, testRecipient string) *Service {
	return &Service{audience: audience, mail: mail, log: log, testRecipient: testRecipient}
}

// Broadcast renders the content (markdown or pre-rendered HTML) and sends one
// mail per verified subscriber concurrently, waiting for all sends to settle.
// Any single failure fails the whole batch; there is no per-recipient retry
// or partial-success reporting, and nothing already sent is recalled.
func (s *Service) Broadcast(ctx context.Context, subject, content string) (int, error) {
	html, err := markdown.Render(content)
	if err != nil {
		return 0, fmt.Errorf("render content: %w", err)
	}

	subs, err := s.audience.ListVerified(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscribers: %w", err)
	}

	batch := uuid.New().String()
	s.log.Info("newsletter broadcast started",
		zap.String("batch", batch),
		zap.String("subject", subject),
		zap.Int("recipients", len(subs)),
	)

	var g errgroup.Group
	for _, sub := range subs {
		to := sub.Address
		g.Go(func() error {
			if err := s.mail.SendNewsletter(to, subject, html); err != nil {
				s.log.Error("newsletter send failed",
					zap.String("batch", batch),
					zap.String("address", to),
					zap.Error(err),
				)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("broadcast: %w", err)
	}

	s.log.Info("newsletter broadcast finished", zap.String("batch", batch), zap.Int("recipients", len(subs)))
	return len(subs), nil
}

// SendTest mails a probe to the configured sender address.
func (s *Service) SendTest() error {
	if s.testRecipient == "" {
		return fmt.Errorf("no test recipient configured")
	}
	return s.mail.SendTest(s.testRecipient)
}
