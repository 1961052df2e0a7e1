package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graficaloja/backend-pdv/internal/events"
	"github.com/graficaloja/backend-pdv/internal/repo"
)

type stubStore struct {
	last repo.DomainEvent
}

func (s *stubStore) Insert(_ context.Context, e repo.DomainEvent) error {
	s.last = e
	return nil
}

type captureNotifier struct {
	events []repo.DomainEvent
}

func (c *captureNotifier) Notify(_ context.Context, e repo.DomainEvent) error {
	c.events = append(c.events, e)
	return nil
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{
		Store:     store,
		Notifiers: []events.Notifier{notifier},
	}

	payload := map[string]any{"orderId": "123"}
	event, err := bus.Emit(context.Background(), events.TopicSaleCreated, payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicSaleCreated, store.last.Topic)
	require.JSONEq(t, `{"orderId":"123"}`, string(store.last.Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "123", decoded["orderId"])
}

func TestEmitRejectsBlankTopic(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), "  ", nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidRawPayload(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), events.TopicSaleCreated, []byte("{not json"))
	require.Error(t, err)
}

func TestEmitNilPayloadStoresEmptyObject(t *testing.T) {
	store := &stubStore{}
	bus := events.Bus{Store: store}
	_, err := bus.Emit(context.Background(), events.TopicSaleCancelled, nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(store.last.Payload))
}
