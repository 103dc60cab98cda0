package pages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/pagegate/internal/access"
	"github.com/hnrobert/pagegate/internal/session"
)

var allPages = []string{"Home", "Info", "Customers", "Page 1", "Page 2", "Admin", "Profile"}

type countingHandler struct {
	calls int
}

func (c *countingHandler) Main(ctx context.Context, req *Request) (*View, error) {
	c.calls++
	return &View{Title: req.PageID}, nil
}

func sessionWith(perms ...string) *session.Session {
	s := session.NewRegistry().New()
	s.Login(session.Identity{Username: "alice", Role: "user", Permissions: perms}, time.Now())
	return s
}

func TestKey(t *testing.T) {
	assert.Equal(t, "Page_1", Key("Page 1"))
	assert.Equal(t, "Home", Key("Home"))
	assert.Equal(t, "a_b_c", Key("a b c"))
}

func TestDispatch(t *testing.T) {
	r := NewRegistry()
	h := &countingHandler{}
	require.NoError(t, r.Register("Page 1", h))

	v, err := r.Dispatch(context.Background(), "Page 1", &Request{})
	require.NoError(t, err)
	assert.Equal(t, "Page 1", v.Title)
	assert.Equal(t, 1, h.calls)

	_, err = r.Dispatch(context.Background(), "Page 1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, h.calls, "re-dispatch runs the handler again")
}

func TestDispatch_Errors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("Broken", nil))

	_, err := r.Dispatch(context.Background(), "Nope", &Request{})
	assert.ErrorIs(t, err, ErrPageNotFound)

	_, err = r.Dispatch(context.Background(), "Broken", &Request{})
	assert.ErrorIs(t, err, ErrMalformedPage)
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("Page 1", &countingHandler{}))
	err := r.Register("Page_1", &countingHandler{})
	assert.ErrorIs(t, err, ErrDuplicatePage)
	assert.True(t, r.Has("Page 1"))
	assert.False(t, r.Has("Page 3"))
}

func TestGuarded_UnauthenticatedNeverRuns(t *testing.T) {
	r := NewRegistry()
	counters := map[string]*countingHandler{}
	for _, id := range allPages {
		c := &countingHandler{}
		counters[id] = c
		require.NoError(t, r.Register(id, Guarded(id, c)))
	}

	anon := session.NewRegistry().New()
	for _, id := range allPages {
		v, err := r.Dispatch(context.Background(), id, &Request{Session: anon})
		assert.ErrorIs(t, err, access.ErrUnauthenticated, id)
		assert.Nil(t, v)
		assert.Zero(t, counters[id].calls, id)
	}
}

func TestGuarded_Permissions(t *testing.T) {
	r := NewRegistry()
	counters := map[string]*countingHandler{}
	for _, id := range allPages {
		c := &countingHandler{}
		counters[id] = c
		require.NoError(t, r.Register(id, Guarded(id, c)))
	}

	s := sessionWith("Info")
	for _, id := range allPages {
		_, err := r.Dispatch(context.Background(), id, &Request{Session: s})
		switch id {
		case "Home", "Info":
			assert.NoError(t, err, id)
			assert.Equal(t, 1, counters[id].calls, id)
		default:
			assert.ErrorIs(t, err, access.ErrForbidden, id)
			assert.Zero(t, counters[id].calls, id)
		}
	}
}

func TestGuarded_Nil(t *testing.T) {
	assert.Nil(t, Guarded("Info", nil))
}

func TestUniverse(t *testing.T) {
	u := NewUniverse([]string{"Home", "Info", "Home", "Admin"})
	assert.Equal(t, []string{"Home", "Info", "Admin"}, u.IDs())
	assert.True(t, u.Contains("Admin"))
	assert.False(t, u.Contains("Secret"))

	assert.Equal(t, []string{"Info", "Home"}, u.Filter([]string{"Info", "Secret", "Home", "Info"}))
	assert.Equal(t, []string{}, u.Filter(nil))
}

func TestContentPages(t *testing.T) {
	content, err := ContentPages()
	require.NoError(t, err)

	for _, id := range []string{"Home", "Info", "Customers", "Page 1", "Page 2"} {
		h, ok := content[id]
		require.True(t, ok, id)
		v, err := h.Main(context.Background(), &Request{PageID: id})
		require.NoError(t, err)
		assert.Equal(t, id, v.Title)
		assert.True(t, strings.Contains(string(v.Body), "<h1>"), id)
	}
}

func TestDispatch_AliasUsesRegisteredID(t *testing.T) {
	r := NewRegistry()
	h := &countingHandler{}
	require.NoError(t, r.Register("Page 1", Guarded("Page 1", h)))

	req := &Request{Session: sessionWith("Page 1")}
	v, err := r.Dispatch(context.Background(), "Page_1", req)
	require.NoError(t, err)
	assert.Equal(t, "Page 1", req.PageID)
	assert.Equal(t, "Page 1", v.Title)

	_, err = r.Dispatch(context.Background(), "Page_1", &Request{Session: sessionWith("Page_1")})
	assert.ErrorIs(t, err, access.ErrForbidden, "permission is checked against the registered id")
}
