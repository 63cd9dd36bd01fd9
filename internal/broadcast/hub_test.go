package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelterhub/internal/platform/metrics"
	"shelterhub/internal/shelter/models"
)

type recordingSink struct {
	mu       sync.Mutex
	payloads [][]byte
	full     bool
	closed   int
}

func (s *recordingSink) Deliver(payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.payloads = append(s.payloads, payload)
	return true
}

func (s *recordingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func (s *recordingSink) events(t *testing.T) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.payloads))
	for i, p := range s.payloads {
		require.NoError(t, json.Unmarshal(p, &out[i]))
	}
	return out
}

type recordingMirror struct {
	keys []string
}

func (m *recordingMirror) Mirror(_ context.Context, key string, _ []byte) {
	m.keys = append(m.keys, key)
}

func view(id int64) *models.View {
	return models.NewView(&models.Shelter{ID: id, Name: "Civic Hall", PhotoIDs: []string{"p1"}})
}

func TestPublishFansOutToEveryLiveSubscriber(t *testing.T) {
	hub := NewHub()
	sinks := make([]*recordingSink, 3)
	for i := range sinks {
		sinks[i] = &recordingSink{}
		hub.Register(string(rune('a'+i)), sinks[i])
	}

	hub.Publish(context.Background(), Created(view(1)))

	for _, sink := range sinks {
		events := sink.events(t)
		require.Len(t, events, 1)
		assert.Equal(t, ActionCreate, events[0].Action)
		require.NotNil(t, events[0].Shelter)
		assert.Equal(t, []string{"/photos/p1"}, events[0].Shelter.PhotoURLs)
	}
}

func TestLateSubscriberReceivesNothingRetroactively(t *testing.T) {
	hub := NewHub()
	early := &recordingSink{}
	hub.Register("early", early)
	hub.Publish(context.Background(), Deleted(1))

	late := &recordingSink{}
	hub.Register("late", late)
	assert.Empty(t, late.events(t))

	hub.Publish(context.Background(), Deleted(2))
	assert.Len(t, late.events(t), 1)
	assert.Len(t, early.events(t), 2)
}

func TestFailedSinkIsPruned(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	hub := NewHub(WithMetrics(m))
	healthy := &recordingSink{}
	slow := &recordingSink{full: true}
	hub.Register("healthy", healthy)
	hub.Register("slow", slow)

	hub.Publish(context.Background(), BulkDeleted([]int64{1, 2}))

	assert.Equal(t, 1, hub.Len())
	assert.Equal(t, 1, slow.closed)
	assert.Len(t, healthy.events(t), 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SubscribersDropped))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Subscribers))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsDelivered))
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	sink := &recordingSink{}
	hub.Register("a", sink)

	hub.Unregister("a")
	hub.Unregister("a")
	hub.Unregister("never-registered")

	assert.Equal(t, 0, hub.Len())
	assert.Equal(t, 1, sink.closed)
}

func TestRegisterReplacesExistingID(t *testing.T) {
	hub := NewHub()
	first, second := &recordingSink{}, &recordingSink{}
	hub.Register("a", first)
	hub.Register("a", second)

	assert.Equal(t, 1, hub.Len())
	assert.Equal(t, 1, first.closed)
}

func TestPublishWithNoSubscribersAndMirror(t *testing.T) {
	mirror := &recordingMirror{}
	hub := NewHub(WithMirror(mirror))

	hub.Publish(context.Background(), Updated(view(5)))
	hub.Publish(context.Background(), BulkUpdated([]*models.View{view(1), view(2)}))

	assert.Equal(t, []string{"5", "bulk_update"}, mirror.keys)
}

func TestDeleteEventShape(t *testing.T) {
	raw, err := json.Marshal(Deleted(9))
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"delete","shelter_id":9,"deleted":true}`, string(raw))

	raw, err = json.Marshal(BulkDeleted([]int64{3, 4}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"bulk_delete","shelter_ids":[3,4],"deleted":true}`, string(raw))
}

func TestCloseDropsEverySubscriber(t *testing.T) {
	hub := NewHub()
	a, b := &recordingSink{}, &recordingSink{}
	hub.Register("a", a)
	hub.Register("b", b)

	hub.Close()
	assert.Equal(t, 0, hub.Len())
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
}
