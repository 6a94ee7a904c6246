// Package bridge implements the event bridge: the daemon's Redis-backed
// boundary with the rest of the system, publishing controller state
// changes as hash fields and forwarding inbound mode requests back into
// the controller after a whitelist/capability check.
package bridge

import (
	"slices"

	"github.com/librescoot/usbmoded/pkg/mode"
)

// Checker is the whitelist/capability permission check for inbound
// request_mode calls. A superuser may request any configured mode;
// everyone else is limited to the mode list's whitelist.
type Checker struct {
	modes      *mode.List
	superUsers []string
}

// NewChecker builds a Checker from the loaded mode list and the
// configured superuser names.
func NewChecker(modes *mode.List, superUsers []string) *Checker {
	return &Checker{modes: modes, superUsers: superUsers}
}

// Allowed implements controller.PermissionChecker.
func (c *Checker) Allowed(user mode.UserID, name mode.Name) bool {
	if c.isSuperUser(string(user)) {
		return true
	}
	return c.modes.IsWhitelisted(name)
}

func (c *Checker) isSuperUser(username string) bool {
	return username != "" && slices.Contains(c.superUsers, username)
}
