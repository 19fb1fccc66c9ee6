package event

import (
	"testing"

	"github.com/canoe/backend/internal/domain/fund"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterAllEvents(s)
	return s
}

func TestEventSerializer_RoundTripCreated(t *testing.T) {
	s := newTestSerializer()

	env, err := s.Serialize(fund.CreatedEvent{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, fund.EventTypeCreated, env.Name)
	assert.JSONEq(t, `{"id":7}`, string(env.Payload))

	decoded, err := s.Deserialize(env)
	require.NoError(t, err)

	created, ok := decoded.(*fund.CreatedEvent)
	require.True(t, ok, "expected *fund.CreatedEvent, got %T", decoded)
	assert.Equal(t, int64(7), created.ID)
}

func TestEventSerializer_RoundTripDuplicate(t *testing.T) {
	s := newTestSerializer()
	f := fund.Fund{ID: 3, Name: "Alpha", Manager: 9, StartYear: 2020, Version: 2}

	env, err := s.Serialize(fund.NewDuplicateEvent(&f))
	require.NoError(t, err)
	assert.Equal(t, fund.EventTypeDuplicate, env.Name)

	decoded, err := s.Deserialize(env)
	require.NoError(t, err)

	dup, ok := decoded.(*fund.DuplicateEvent)
	require.True(t, ok)
	assert.Equal(t, f, dup.Fund)
	assert.Equal(t, "fund_duplicate:3:v2", dup.IdempotencyKey())
}

func TestEventSerializer_UnknownType(t *testing.T) {
	s := newTestSerializer()

	_, err := s.Deserialize(NewEnvelope("fund_deleted", []byte(`{}`)))
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestEventSerializer_MalformedPayload(t *testing.T) {
	s := newTestSerializer()

	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `not-json`},
		{"wrong field type", `{"id":"seven"}`},
		{"truncated", `{"id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Deserialize(NewEnvelope(fund.EventTypeCreated, []byte(tt.payload)))
			assert.ErrorIs(t, err, ErrPayloadParse)
		})
	}
}

func TestEventSerializer_RegisteredTypes(t *testing.T) {
	s := newTestSerializer()

	assert.True(t, s.IsRegistered(fund.EventTypeCreated))
	assert.True(t, s.IsRegistered(fund.EventTypeDuplicate))
	assert.False(t, s.IsRegistered("other"))
	assert.Equal(t, []string{"fund_created", "fund_duplicate"}, s.RegisteredTypes())
}
