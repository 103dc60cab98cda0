package credstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleDoc = `passwords:
  alice: p1
  root: r00t
profile:
  alice:
    name: Alice
    password: p1
    email: alice@example.com
  root:
    name: Root
    password: r00t
roles:
  root: admin
permissions:
  alice: [Home]
  root: [Home, Admin]
active_users:
  alice: true
  root: true
theme:
  color: dark
`

func writeStore(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func readGeneric(t *testing.T, p string) map[string]interface{} {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, yaml.Unmarshal(b, &m))
	return m
}

func TestLoad(t *testing.T) {
	s, err := Load(writeStore(t, sampleDoc))
	require.NoError(t, err)

	d := s.Snapshot()
	assert.Equal(t, []string{"alice", "root"}, d.Usernames())
	assert.Equal(t, "admin", d.RoleOf("root"))
	assert.Equal(t, "user", d.RoleOf("alice"))
	assert.Equal(t, []string{"Home", "Admin"}, d.PermissionsOf("root"))
	assert.True(t, d.IsActive("alice"))
	assert.Equal(t, "Alice", d.DisplayName("alice"))
}

func TestLoad_Failures(t *testing.T) {
	tests := map[string]string{
		"malformed":        "passwords: [",
		"empty":            "   \n",
		"missing sections": "roles:\n  a: admin\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeStore(t, body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrStoreLoad))
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, ErrStoreLoad)
}

func TestRoundTrip_NoFieldLoss(t *testing.T) {
	p := writeStore(t, sampleDoc)
	before := readGeneric(t, p)

	s, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, s.Save())

	after := readGeneric(t, p)
	assert.Equal(t, before, after)
}

func TestDefaults(t *testing.T) {
	s, err := Load(writeStore(t, "passwords:\n  bob: pw\n"))
	require.NoError(t, err)
	d := s.Snapshot()

	assert.Equal(t, "user", d.RoleOf("bob"))
	assert.Equal(t, []string{"Home"}, d.PermissionsOf("bob"))
	assert.False(t, d.IsActive("bob"), "absent active flag means inactive")
	assert.Equal(t, "bob", d.DisplayName("bob"))
}

func TestUpdate_PersistsAndPublishes(t *testing.T) {
	p := writeStore(t, sampleDoc)
	s, err := Load(p)
	require.NoError(t, err)

	require.NoError(t, s.Update(func(d *Document) error {
		d.ActiveUsers["alice"] = false
		return nil
	}))

	snap := s.Snapshot()
	assert.False(t, snap.IsActive("alice"))

	reloaded, err := Load(p)
	require.NoError(t, err)
	r := reloaded.Snapshot()
	assert.False(t, r.IsActive("alice"))
}

func TestUpdate_CallbackErrorWritesNothing(t *testing.T) {
	p := writeStore(t, sampleDoc)
	s, err := Load(p)
	require.NoError(t, err)
	before, err := os.ReadFile(p)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Update(func(d *Document) error {
		d.Passwords["mallory"] = "x"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	after, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	snap := s.Snapshot()
	assert.False(t, snap.HasUser("mallory"))
}

func TestUpdate_SaveFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sub", "credentials.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(sampleDoc), 0o600))
	s, err := Load(p)
	require.NoError(t, err)

	// Replace the directory with a plain file so the temp file cannot be created.
	require.NoError(t, os.RemoveAll(filepath.Dir(p)))
	require.NoError(t, os.WriteFile(filepath.Dir(p), []byte("x"), 0o600))

	err = s.Update(func(d *Document) error {
		d.Roles["alice"] = RoleAdmin
		return nil
	})
	assert.ErrorIs(t, err, ErrStoreSave)
	snap := s.Snapshot()
	assert.Equal(t, RoleUser, snap.RoleOf("alice"))
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s, err := Load(writeStore(t, sampleDoc))
	require.NoError(t, err)

	d := s.Snapshot()
	d.Permissions["root"][0] = "Tampered"
	d.Passwords["root"] = "changed"

	again := s.Snapshot()
	assert.Equal(t, "Home", again.Permissions["root"][0])
	assert.Equal(t, "r00t", again.Passwords["root"])
}

func TestCreate(t *testing.T) {
	p := filepath.Join(t.TempDir(), "credentials.yaml")
	doc := Document{Passwords: map[string]string{"root": "pw"}}

	s, err := Create(p, doc)
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.True(t, snap.HasUser("root"))

	_, err = Load(p)
	require.NoError(t, err)

	_, err = Create(p, doc)
	assert.ErrorIs(t, err, ErrStoreExists)
}

func TestUpdate_ConcurrentWritersSerialized(t *testing.T) {
	p := writeStore(t, sampleDoc)
	s, err := Load(p)
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := fmt.Sprintf("u%02d", i)
			assert.NoError(t, s.Update(func(d *Document) error {
				d.Passwords[u] = "pw"
				d.ActiveUsers[u] = true
				return nil
			}))
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()

	reloaded, err := Load(p)
	require.NoError(t, err)
	d := reloaded.Snapshot()
	assert.Len(t, d.Usernames(), n+2)
	assert.Equal(t, "Alice", d.DisplayName("alice"))
}
