package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/resource-collection/pkg/client"
)

type call struct {
	method string
	target string
	params map[string]any
}

// stubTransport answers every request with body (or err) and records it.
type stubTransport struct {
	body  map[string]any
	err   error
	calls []call
}

func (s *stubTransport) Send(_ context.Context, method, target string, params map[string]any) (*client.Response, error) {
	s.calls = append(s.calls, call{method: method, target: target, params: params})
	if s.err != nil {
		return nil, s.err
	}
	return &client.Response{StatusCode: 200, Body: s.body}, nil
}

func TestSingularize(t *testing.T) {
	tests := map[string]string{
		"tickets":    "ticket",
		"categories": "category",
		"boxes":      "box",
		"addresses":  "address",
		"access":     "access",
		"data":       "data",
	}
	for in, want := range tests {
		assert.Equal(t, want, Singularize(in), in)
	}
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "42", FormatID(float64(42)))
	assert.Equal(t, "1.5", FormatID(1.5))
	assert.Equal(t, "7", FormatID(7))
	assert.Equal(t, "abc", FormatID("abc"))
	assert.Equal(t, "9", FormatID(int64(9)))
}

func TestHasID(t *testing.T) {
	assert.False(t, HasID(Attributes{}))
	assert.False(t, HasID(Attributes{"id": nil}))
	assert.False(t, HasID(Attributes{"id": ""}))
	assert.True(t, HasID(Attributes{"id": float64(1)}))
	assert.True(t, HasID(Attributes{"id": "x"}))
}

func TestResolvePath(t *testing.T) {
	users := NewKind("users")
	saved := users.New(nil, Attributes{"id": float64(5)}, nil)
	unsaved := users.New(nil, Attributes{"name": "new"}, nil)

	tests := []struct {
		name     string
		segments []string
		assoc    *Association
		want     string
	}{
		{"type name", nil, nil, "tickets"},
		{"segments", []string{"tickets", "recent"}, nil, "tickets/recent"},
		{"trims slashes", []string{"/tickets/", "recent/"}, nil, "tickets/recent"},
		{"explicit path", []string{"tickets"}, &Association{Path: "/search/"}, "search"},
		{"saved parent", nil, &Association{Parent: saved}, "users/5/tickets"},
		{"unsaved parent", nil, &Association{Parent: unsaved}, "tickets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath("tickets", tt.segments, tt.assoc))
		})
	}
}

func TestAssociation_HasUnsavedParent(t *testing.T) {
	users := NewKind("users")

	var nilAssoc *Association
	assert.False(t, nilAssoc.HasUnsavedParent())
	assert.False(t, (&Association{Path: "x"}).HasUnsavedParent())
	assert.True(t, (&Association{Parent: users.New(nil, nil, nil)}).HasUnsavedParent())
	assert.False(t, (&Association{Parent: users.New(nil, Attributes{"id": 1}, nil)}).HasUnsavedParent())
}

func TestSameType(t *testing.T) {
	tickets := NewKind("tickets")
	users := NewKind("users")

	assert.True(t, SameType(tickets.New(nil, nil, nil), NewKind("tickets")))
	assert.False(t, SameType(users.New(nil, nil, nil), tickets))
	assert.False(t, SameType(nil, tickets))
}

func TestKind_Defaults(t *testing.T) {
	k := NewKind("categories")
	assert.Equal(t, "categories", k.Name())
	assert.Equal(t, "categories", k.ModelKey())
	assert.Equal(t, "category", k.Singular())
	assert.False(t, k.Embedded())

	_, ok := k.Operation("recent")
	assert.False(t, ok)

	custom := NewKind("search", WithModelKey("results"), WithSingular("result"), AsEmbedded(),
		WithOperation("ping", func(context.Context, Transport, ...any) (any, error) { return "pong", nil }))
	assert.Equal(t, "results", custom.ModelKey())
	assert.Equal(t, "result", custom.Singular())
	assert.True(t, custom.Embedded())

	op, ok := custom.Operation("ping")
	require.True(t, ok)
	out, err := op(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

func TestKind_NewProducesDataOrRecord(t *testing.T) {
	_, isRecord := NewKind("tickets").New(nil, nil, nil).(*Record)
	assert.True(t, isRecord)

	r := NewKind("fields", AsEmbedded()).New(nil, nil, nil)
	_, isData := r.(*Data)
	assert.True(t, isData)
	_, canSave := r.(Saver)
	assert.False(t, canSave)
}

func TestKind_CRUD(t *testing.T) {
	ctx := context.Background()
	tickets := NewKind("tickets")
	tr := &stubTransport{body: map[string]any{"ticket": map[string]any{"id": float64(3), "subject": "hi"}}}

	created, err := tickets.Create(ctx, tr, Options{Attributes: Attributes{"subject": "hi"}})
	require.NoError(t, err)
	id, ok := created.ID()
	require.True(t, ok)
	assert.Equal(t, float64(3), id)
	assert.Equal(t, call{method: "POST", target: "tickets", params: map[string]any{"ticket": map[string]any{"subject": "hi"}}}, tr.calls[0])

	_, err = tickets.Find(ctx, tr, Options{Attributes: Attributes{"id": float64(3)}})
	require.NoError(t, err)
	assert.Equal(t, "GET", tr.calls[1].method)
	assert.Equal(t, "tickets/3", tr.calls[1].target)

	_, err = tickets.Update(ctx, tr, Options{Attributes: Attributes{"id": float64(3), "subject": "new"}})
	require.NoError(t, err)
	assert.Equal(t, "PUT", tr.calls[2].method)
	assert.Equal(t, map[string]any{"ticket": map[string]any{"subject": "new"}}, tr.calls[2].params)

	destroyed, err := tickets.Destroy(ctx, tr, Options{Attributes: Attributes{"id": float64(3)}})
	require.NoError(t, err)
	assert.Equal(t, "DELETE", tr.calls[3].method)
	assert.Equal(t, "tickets/3", tr.calls[3].target)
	gone, _ := destroyed.ID()
	assert.Equal(t, float64(3), gone)
}

func TestKind_CRUDErrors(t *testing.T) {
	ctx := context.Background()
	tickets := NewKind("tickets")

	_, err := tickets.Find(ctx, &stubTransport{}, Options{})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = tickets.Find(ctx, &stubTransport{body: map[string]any{}}, Options{Attributes: Attributes{"id": 1}})
	assert.ErrorIs(t, err, ErrMissingEnvelope)

	boom := errors.New("boom")
	_, err = tickets.Destroy(ctx, &stubTransport{err: boom}, Options{Attributes: Attributes{"id": 1}})
	assert.ErrorIs(t, err, boom)
}

func TestKind_CRUDUnderParent(t *testing.T) {
	users := NewKind("users")
	tickets := NewKind("tickets")
	tr := &stubTransport{body: map[string]any{"ticket": map[string]any{"id": float64(8)}}}

	assoc := &Association{Parent: users.New(nil, Attributes{"id": float64(2)}, nil)}
	_, err := tickets.Find(context.Background(), tr, Options{Association: assoc, Attributes: Attributes{"id": float64(8)}})
	require.NoError(t, err)
	assert.Equal(t, "users/2/tickets/8", tr.calls[0].target)
}

func TestRecord_ChangeTracking(t *testing.T) {
	tickets := NewKind("tickets")
	r := tickets.New(nil, Attributes{"id": float64(1), "subject": "a"}, nil).(*Record)

	assert.False(t, r.Changed())
	r.Set("subject", "b")
	assert.True(t, r.Changed())
	assert.Equal(t, Attributes{"subject": "b"}, r.Changes())
	assert.Equal(t, "b", r.Get("subject"))

	fresh := tickets.New(nil, Attributes{"subject": "x"}, nil)
	assert.True(t, fresh.Changed(), "records without id are unsaved")
}

func TestRecord_Save(t *testing.T) {
	ctx := context.Background()
	tickets := NewKind("tickets")

	t.Run("creates new record", func(t *testing.T) {
		tr := &stubTransport{body: map[string]any{"ticket": map[string]any{"id": float64(11), "subject": "a"}}}
		r := tickets.New(tr, Attributes{"subject": "a"}, nil).(*Record)

		require.NoError(t, r.Save(ctx))
		assert.Equal(t, "POST", tr.calls[0].method)
		assert.Equal(t, "tickets", tr.calls[0].target)
		id, ok := r.ID()
		require.True(t, ok)
		assert.Equal(t, float64(11), id)
		assert.False(t, r.Changed())
	})

	t.Run("updates only changes", func(t *testing.T) {
		tr := &stubTransport{body: map[string]any{"ticket": map[string]any{"id": float64(4), "subject": "b", "status": "open"}}}
		r := tickets.New(tr, Attributes{"id": float64(4), "subject": "a", "status": "open"}, nil).(*Record)
		r.Set("subject", "b")

		require.NoError(t, r.Save(ctx))
		assert.Equal(t, "PUT", tr.calls[0].method)
		assert.Equal(t, "tickets/4", tr.calls[0].target)
		assert.Equal(t, map[string]any{"ticket": map[string]any{"subject": "b"}}, tr.calls[0].params)
		assert.False(t, r.Changed())
	})

	t.Run("unchanged is a no-op", func(t *testing.T) {
		tr := &stubTransport{}
		r := tickets.New(tr, Attributes{"id": float64(4)}, nil).(*Record)
		require.NoError(t, r.Save(ctx))
		assert.Empty(t, tr.calls)
	})

	t.Run("failure keeps changes", func(t *testing.T) {
		tr := &stubTransport{err: errors.New("down")}
		r := tickets.New(tr, Attributes{"id": float64(4)}, nil).(*Record)
		r.Set("subject", "c")
		assert.Error(t, r.Save(ctx))
		assert.True(t, r.Changed())
	})
}

func TestData_String(t *testing.T) {
	d := NewKind("fields", AsEmbedded()).New(nil, Attributes{"id": 1, "b": "x"}, nil)
	assert.Equal(t, "#<field b=x id=1>", d.(*Data).String())
}
