package contact

import (
	"context"
	"log"
)

type Store interface {
	Create(ctx context.Context, m Message) (Message, error)
	Get(ctx context.Context, id int64) (Message, error)
	List(ctx context.Context, status Status) ([]Message, error)
	SetStatus(ctx context.Context, id int64, st Status) (Message, error)
}

type Service struct {
	Store    Store
	Notifier Notifier
}

// Submit validates and stores m, then notifies staff. A failed notification
// is logged and does not fail the submission.
func (s *Service) Submit(ctx context.Context, m Message) (Message, error) {
	m.Normalize()
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	saved, err := s.Store.Create(ctx, m)
	if err != nil {
		return Message{}, err
	}
	if s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, saved); err != nil {
			log.Printf("contact: notify #%d: %v", saved.ID, err)
		}
	}
	return saved, nil
}
