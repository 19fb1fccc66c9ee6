package fund

import (
	"encoding/json"
	"testing"

	"github.com/canoe/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func i64Ptr(i int64) *int64   { return &i }
func u16Ptr(u uint16) *uint16 { return &u }

func TestNewFund(t *testing.T) {
	t.Run("creates fund with submitted fields", func(t *testing.T) {
		f, err := NewFund("Growth Fund", 7, 2015)
		require.NoError(t, err)
		assert.Equal(t, int64(0), f.ID)
		assert.Equal(t, "Growth Fund", f.Name)
		assert.Equal(t, int64(7), f.Manager)
		assert.Equal(t, uint16(2015), f.StartYear)
		assert.Equal(t, int64(1), f.Version)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		f, err := NewFund("   ", 7, 2015)
		assert.Nil(t, f)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})
}

func TestFund_Apply(t *testing.T) {
	base := Fund{ID: 3, Name: "Alpha", Manager: 1, StartYear: 2001, Version: 4}

	t.Run("empty partial leaves fund unchanged", func(t *testing.T) {
		f := base
		changed := f.Apply(PartialFund{})
		assert.False(t, changed)
		assert.Equal(t, base, f)
	})

	t.Run("changes exactly the present fields", func(t *testing.T) {
		f := base
		changed := f.Apply(PartialFund{StartYear: u16Ptr(2010)})
		assert.True(t, changed)
		assert.Equal(t, "Alpha", f.Name)
		assert.Equal(t, int64(1), f.Manager)
		assert.Equal(t, uint16(2010), f.StartYear)
		assert.Equal(t, int64(3), f.ID)
		assert.Equal(t, int64(4), f.Version)
	})

	t.Run("all fields", func(t *testing.T) {
		f := base
		changed := f.Apply(PartialFund{Name: strPtr("Beta"), Manager: i64Ptr(9), StartYear: u16Ptr(1999)})
		assert.True(t, changed)
		assert.Equal(t, Fund{ID: 3, Name: "Beta", Manager: 9, StartYear: 1999, Version: 4}, f)
	})

	t.Run("same values report no change", func(t *testing.T) {
		f := base
		assert.False(t, f.Apply(PartialFund{Name: strPtr("Alpha"), Manager: i64Ptr(1)}))
	})
}

func TestPartialFund(t *testing.T) {
	t.Run("decodes only present fields", func(t *testing.T) {
		var p PartialFund
		require.NoError(t, json.Unmarshal([]byte(`{"manager": 12}`), &p))
		assert.Nil(t, p.Name)
		assert.Nil(t, p.StartYear)
		require.NotNil(t, p.Manager)
		assert.Equal(t, int64(12), *p.Manager)
		assert.False(t, p.IsEmpty())
	})

	t.Run("validate rejects blank name", func(t *testing.T) {
		assert.Error(t, PartialFund{Name: strPtr("")}.Validate())
		assert.NoError(t, PartialFund{}.Validate())
		assert.True(t, PartialFund{}.IsEmpty())
	})
}

func TestEvents(t *testing.T) {
	f := &Fund{ID: 42, Name: "Gamma", Manager: 2, StartYear: 2020, Version: 1}

	t.Run("created event payload carries the id", func(t *testing.T) {
		data, err := json.Marshal(NewCreatedEvent(f))
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":42}`, string(data))
		assert.Equal(t, EventTypeCreated, NewCreatedEvent(f).EventType())
	})

	t.Run("duplicate event payload is the serialized fund", func(t *testing.T) {
		ev := NewDuplicateEvent(f)
		data, err := json.Marshal(ev)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":42,"name":"Gamma","manager":2,"start_year":2020,"version":1}`, string(data))
		assert.Equal(t, EventTypeDuplicate, ev.EventType())
		assert.Equal(t, "fund_duplicate:42:v1", ev.IdempotencyKey())
	})

	t.Run("duplicate event copies the fund", func(t *testing.T) {
		g := *f
		ev := NewDuplicateEvent(&g)
		g.Name = "changed"
		assert.Equal(t, "Gamma", ev.Name)
	})
}
