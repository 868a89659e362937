package services

import "github.com/satonic/artexchange/internal/models"

// Publisher receives events after the transaction producing them committed
type Publisher interface {
	Publish(event models.Event)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(models.Event)

// Publish calls f(event)
func (f PublisherFunc) Publish(event models.Event) {
	f(event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.Event) {}

func orNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
