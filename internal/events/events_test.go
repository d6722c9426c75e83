package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type memStore struct {
	events []Event
	err    error
}

func (m *memStore) InsertEvent(_ context.Context, ev Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

type memPublisher struct {
	events []Event
	err    error
}

func (m *memPublisher) Publish(_ context.Context, ev Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *memPublisher) Close() error { return nil }

func TestRecorder_WritesStoreThenPublisher(t *testing.T) {
	store := &memStore{}
	pub := &memPublisher{}
	rec := NewRecorder(store, pub, zerolog.Nop())
	fixed := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return fixed }

	rec.Emit(context.Background(), Event{Type: AppointmentBooked, Entity: EntityAppointment, EntityID: uuid.New()})

	if len(store.events) != 1 || len(pub.events) != 1 {
		t.Fatalf("expected one event in each sink, got %d/%d", len(store.events), len(pub.events))
	}
	if !store.events[0].OccurredAt.Equal(fixed) {
		t.Errorf("expected OccurredAt to be stamped, got %v", store.events[0].OccurredAt)
	}
}

func TestRecorder_StoreFailureStillPublishes(t *testing.T) {
	store := &memStore{err: errors.New("db down")}
	pub := &memPublisher{}
	rec := NewRecorder(store, pub, zerolog.Nop())

	rec.Emit(context.Background(), Event{Type: EncounterCreated, Entity: EntityEncounter, EntityID: uuid.New()})

	if len(pub.events) != 1 {
		t.Fatalf("expected publish despite store failure, got %d", len(pub.events))
	}
}

func TestRecorder_NilSinks(t *testing.T) {
	rec := NewRecorder(nil, nil, zerolog.Nop())
	rec.Emit(context.Background(), Event{Type: EncounterCompleted})
}

func TestToMessage(t *testing.T) {
	id := uuid.New()
	ev := Event{
		Type:       AppointmentQueued,
		Entity:     EntityAppointment,
		EntityID:   id,
		Payload:    map[string]any{"village": "Rohta"},
		OccurredAt: time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC),
	}

	msg, err := toMessage(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg.Key) != id.String() {
		t.Errorf("expected key %s, got %s", id, msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != AppointmentQueued {
		t.Errorf("unexpected headers %+v", msg.Headers)
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded["type"] != AppointmentQueued || decoded["entity"] != EntityAppointment {
		t.Errorf("unexpected body %v", decoded)
	}
}
