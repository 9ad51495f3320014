package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gallery-api/internal/domain/media"
	"gallery-api/internal/domain/orders"
	"gallery-api/internal/infra/notify"
)

// Sent is one message captured by Notifier.
type Sent struct {
	To   string
	Kind notify.Kind
	Data map[string]any
}

// Notifier records every send. Set Err to make sends fail.
type Notifier struct {
	mu   sync.Mutex
	Err  error
	sent []Sent
}

func (n *Notifier) Send(_ context.Context, to string, kind notify.Kind, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, Sent{To: to, Kind: kind, Data: data})
	return nil
}

func (n *Notifier) Sent() []Sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Sent(nil), n.sent...)
}

// ImageStore keeps images in memory.
type ImageStore struct {
	mu      sync.Mutex
	Err     error
	Objects map[string][]byte
	Deleted []string
}

func NewImageStore() *ImageStore {
	return &ImageStore{Objects: map[string][]byte{}}
}

func (s *ImageStore) Store(_ context.Context, name, _ string, data []byte) (media.ImageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return media.ImageRef{}, s.Err
	}
	id := fmt.Sprintf("img-%d-%s", len(s.Objects)+len(s.Deleted)+1, name)
	s.Objects[id] = data
	return media.ImageRef{URL: "https://images.test/" + id, PublicID: id}, nil
}

func (s *ImageStore) Delete(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, publicID)
	s.Deleted = append(s.Deleted, publicID)
	return nil
}

// PaymentProvider is a scripted orders.PaymentProvider.
type PaymentProvider struct {
	mu sync.Mutex

	CreateErr error
	// Block makes CreateCheckoutSession wait for the context to end.
	Block bool
	// Events returned by ParseEvent, keyed by signature.
	Events map[string]orders.PaymentEvent

	Requests []orders.CheckoutRequest
	Refunds  []string
	// Payloads are the raw bodies passed to ParseEvent.
	Payloads [][]byte
	seq      int
}

func NewPaymentProvider() *PaymentProvider {
	return &PaymentProvider{Events: map[string]orders.PaymentEvent{}}
}

func (p *PaymentProvider) CreateCheckoutSession(ctx context.Context, req orders.CheckoutRequest) (orders.CheckoutSession, error) {
	if p.Block {
		<-ctx.Done()
		return orders.CheckoutSession{}, ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, req)
	if p.CreateErr != nil {
		return orders.CheckoutSession{}, p.CreateErr
	}
	p.seq++
	id := fmt.Sprintf("cs_test_%d", p.seq)
	return orders.CheckoutSession{ID: id, URL: "https://checkout.test/" + id}, nil
}

var ErrBadSignature = errors.New("bad signature")

func (p *PaymentProvider) ParseEvent(payload []byte, signature string) (orders.PaymentEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Payloads = append(p.Payloads, append([]byte(nil), payload...))
	ev, ok := p.Events[signature]
	if !ok {
		return orders.PaymentEvent{}, ErrBadSignature
	}
	return ev, nil
}

func (p *PaymentProvider) Refund(_ context.Context, intentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Refunds = append(p.Refunds, intentID)
	return nil
}

func (p *PaymentProvider) RefundCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Refunds)
}
