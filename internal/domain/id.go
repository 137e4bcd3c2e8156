package domain

import (
	"strings"

	"go.jetify.com/typeid"
)

// Entities are named by TypeID-style identifiers: an entity-kind prefix plus
// a sortable random suffix, e.g. user_01h455vb4pex5vsknk084sn02q.
const (
	PrefixUser         = "user"
	PrefixSession      = "sess"
	PrefixOAuthAccount = "oauth"
)

func NewUserID() string         { return newID(PrefixUser) }
func NewSessionID() string      { return newID(PrefixSession) }
func NewOAuthAccountID() string { return newID(PrefixOAuthAccount) }

func newID(prefix string) string {
	tid, _ := typeid.WithPrefix(prefix)
	return tid.String()
}

// HasPrefix reports whether id names an entity of the given kind.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_") && len(id) > len(prefix)+1
}
