package credstore

import (
	"sort"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultPage = "Home"
)

// Document is the full account registry as persisted on disk.
// Unknown top-level sections survive a load/save round trip via Extra.
type Document struct {
	Passwords   map[string]string   `yaml:"passwords"`
	Profile     map[string]Profile  `yaml:"profile"`
	Roles       map[string]string   `yaml:"roles"`
	Permissions map[string][]string `yaml:"permissions"`
	ActiveUsers map[string]bool     `yaml:"active_users"`

	Extra map[string]interface{} `yaml:",inline"`
}

type Profile struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`

	Extra map[string]interface{} `yaml:",inline"`
}

// DefaultPermissions is granted to accounts without a permissions entry.
func DefaultPermissions() []string {
	return []string{DefaultPage}
}

// Normalize allocates any missing section so callers can write into it.
func (d *Document) Normalize() {
	if d.Passwords == nil {
		d.Passwords = map[string]string{}
	}
	if d.Profile == nil {
		d.Profile = map[string]Profile{}
	}
	if d.Roles == nil {
		d.Roles = map[string]string{}
	}
	if d.Permissions == nil {
		d.Permissions = map[string][]string{}
	}
	if d.ActiveUsers == nil {
		d.ActiveUsers = map[string]bool{}
	}
}

// HasUser reports whether username has a password entry.
func (d *Document) HasUser(username string) bool {
	_, ok := d.Passwords[username]
	return ok
}

// RoleOf returns the stored role, or "user" when none is recorded.
func (d *Document) RoleOf(username string) string {
	if r, ok := d.Roles[username]; ok && r != "" {
		return r
	}
	return RoleUser
}

// PermissionsOf returns a copy of the stored permission list, or the default
// ["Home"] when the user has no entry.
func (d *Document) PermissionsOf(username string) []string {
	perms, ok := d.Permissions[username]
	if !ok {
		return DefaultPermissions()
	}
	return append([]string{}, perms...)
}

// IsActive reports the active flag. A user missing from active_users is
// inactive.
func (d *Document) IsActive(username string) bool {
	return d.ActiveUsers[username]
}

// DisplayName returns the profile name, falling back to the username.
func (d *Document) DisplayName(username string) string {
	if p, ok := d.Profile[username]; ok && p.Name != "" {
		return p.Name
	}
	return username
}

// Usernames lists every account with a password entry, sorted.
func (d *Document) Usernames() []string {
	out := make([]string, 0, len(d.Passwords))
	for u := range d.Passwords {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (d *Document) Clone() Document {
	c := Document{
		Passwords:   make(map[string]string, len(d.Passwords)),
		Profile:     make(map[string]Profile, len(d.Profile)),
		Roles:       make(map[string]string, len(d.Roles)),
		Permissions: make(map[string][]string, len(d.Permissions)),
		ActiveUsers: make(map[string]bool, len(d.ActiveUsers)),
		Extra:       cloneExtra(d.Extra),
	}
	for k, v := range d.Passwords {
		c.Passwords[k] = v
	}
	for k, v := range d.Profile {
		c.Profile[k] = Profile{Name: v.Name, Password: v.Password, Extra: cloneExtra(v.Extra)}
	}
	for k, v := range d.Roles {
		c.Roles[k] = v
	}
	for k, v := range d.Permissions {
		c.Permissions[k] = append([]string{}, v...)
	}
	for k, v := range d.ActiveUsers {
		c.ActiveUsers[k] = v
	}
	return c
}

// cloneExtra copies the top level of an inline map. Nested values are
// decoded YAML and never mutated by this package.
func cloneExtra(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
