package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kargo/internal/events"
)

func TestBusFanOut(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	var seen []string
	bus.Subscribe(events.TopicTariffUpdated, func(_ context.Context, ev events.Event) error {
		seen = append(seen, "first:"+ev.Topic)
		return nil
	})
	bus.Subscribe(events.TopicTariffUpdated, func(_ context.Context, ev events.Event) error {
		seen = append(seen, "second:"+ev.Topic)
		return nil
	})
	bus.Subscribe(events.TopicShipmentCreated, func(_ context.Context, _ events.Event) error {
		seen = append(seen, "other")
		return nil
	})

	bus.Publish(context.Background(), events.TopicTariffUpdated, nil)
	require.Equal(t, []string{"first:tariff.updated", "second:tariff.updated"}, seen)
}

func TestBusHandlerErrorDoesNotStopFanOut(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	var reached bool
	bus.Subscribe(events.TopicShipmentCreated, func(_ context.Context, _ events.Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(events.TopicShipmentCreated, func(_ context.Context, _ events.Event) error {
		reached = true
		return nil
	})

	bus.Publish(context.Background(), events.TopicShipmentCreated, map[string]string{"id": "s-1"})
	require.True(t, reached)
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	require.NotPanics(t, func() {
		bus.Publish(context.Background(), events.TopicShipmentRepriced, nil)
	})
}
