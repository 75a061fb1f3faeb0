package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "rentals/internal/app/outbox"
)

type fakeStore struct {
	docs   []*EventDocument
	sent   []string
	failed map[string]time.Time
}

func (s *fakeStore) Claim(context.Context, string) (*EventDocument, error) {
	for _, d := range s.docs {
		if d.State == stateNew {
			d.State = stateClaimed
			return d, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) MarkSent(_ context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id string, next time.Time, _ string) error {
	if s.failed == nil {
		s.failed = map[string]time.Time{}
	}
	s.failed[id] = next
	return nil
}

type published struct {
	topic, key string
	payload    []byte
	headers    map[string]string
}

type fakeProducer struct {
	out  []published
	fail bool
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.out = append(p.out, published{topic, key, payload, headers})
	return nil
}

func doc(id, name string) *EventDocument {
	return &EventDocument{ID: id, Name: name, Aggregate: "b-1", Payload: []byte(`{"unit_id":"villa-7"}`), State: stateNew,
		Headers: map[string]string{"source": "test"}}
}

func TestWorkerDrainPublishesCloudEvents(t *testing.T) {
	store := &fakeStore{docs: []*EventDocument{doc("e-1", "booking.requested"), doc("e-2", "extension.submitted")}}
	prod := &fakeProducer{}
	counts := map[string]int{}
	w := &Worker{Store: store, Producer: prod, TopicPrefix: "dev.", Source: "app://test", Observe: func(r string, n int) { counts[r] += n }}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e-1", "e-2"}, store.sent)
	assert.Equal(t, 2, counts[ResultPublished])

	require.Len(t, prod.out, 2)
	assert.Equal(t, "dev.booking.events.v1", prod.out[0].topic)
	assert.Equal(t, "dev.extension.events.v1", prod.out[1].topic)
	assert.Equal(t, "b-1", prod.out[0].key)
	assert.Equal(t, "application/cloudevents+json", prod.out[0].headers["content-type"])
	assert.Equal(t, "test", prod.out[0].headers["source"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(prod.out[0].payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "e-1", evt["id"])
	assert.Equal(t, "booking.requested.v1", evt["type"])
	assert.Equal(t, "villa-7", evt["data"].(map[string]any)["unit_id"])
}

func TestWorkerBacksOffOnFailure(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	first := doc("e-1", "booking.requested")
	second := doc("e-2", "booking.requested")
	second.Attempts = 5
	store := &fakeStore{docs: []*EventDocument{first, second}}
	w := &Worker{Store: store, Producer: &fakeProducer{fail: true}, Backoff: []time.Duration{time.Second, time.Minute}, Now: func() time.Time { return now }}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, now.Add(time.Second), store.failed["e-1"])

	_, err = w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), store.failed["e-2"])
	assert.Empty(t, store.sent)
}

func TestWorkerRequiresDependencies(t *testing.T) {
	require.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}

func TestSinkPublishesRecords(t *testing.T) {
	prod := &fakeProducer{}
	sink := Sink(prod, "", "")
	err := sink(context.Background(), []appoutbox.EventRecord{{ID: "e-1", Name: "booking.confirmed", Aggregate: "b-1", Payload: []byte(`{}`)}})
	require.NoError(t, err)
	require.Len(t, prod.out, 1)
	assert.Equal(t, "booking.events.v1", prod.out[0].topic)

	assert.Error(t, sink(context.Background(), []appoutbox.EventRecord{{Name: "x", Payload: []byte("nope")}}))
}
