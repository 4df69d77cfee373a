package model

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a new lexically-sortable ULID string for the current time.
func NewULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy)
	return id.String()
}

// NewEntityID returns a fresh "$id" of the form "<namespace>/<ulid>".
func NewEntityID(namespace string) string {
	return fmt.Sprintf("%s/%s", namespace, NewULID())
}

// SplitEntityID splits an "$id" of the form "<namespace>/<ulid>" into its parts.
func SplitEntityID(id string) (namespace, localID string, ok bool) {
	idx := strings.IndexByte(id, '/')
	if idx < 0 {
		return "", "", false
	}
	return id[:idx], id[idx+1:], true
}

// RelationshipTarget formats a relationship event target per spec §3:
// "fromNs:fromId:predicate:toNs:toId".
func RelationshipTarget(fromNs, fromID, predicate, toNs, toID string) string {
	return strings.Join([]string{fromNs, fromID, predicate, toNs, toID}, ":")
}

// EntityTarget formats an entity event target per spec §3: "ns:id".
func EntityTarget(namespace, localID string) string {
	return namespace + ":" + localID
}
