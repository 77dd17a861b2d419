package cairn

import "sort"

type Key string

const (
	// CurrentUserKey stashes the currentUser for a session.
	CurrentUserKey Key = "CurrentUserKey"

	// IpAddrKey stashes the IP address of an HTTP request being handled by cairn.
	IpAddrKey Key = "IpAddrKey"

	// RequestIDKey stashes a unique UUID for each HTTP request.
	RequestIDKey Key = "RequestIDKey"

	// RouteFormatKey stashes the content type a route declared for its responses.
	RouteFormatKey Key = "RouteFormatKey"

	// SessionKey stashes the session associated with an HTTP request.
	SessionKey Key = "SessionKey"
)

// Key returns the key as in a key-value pair,
// implementing [github.com/cairnhq/cairn/http/keyring.Keyable].
func (k Key) Key() string { return string(k) }

// String formats the stringified key with additional contextual information
func (k Key) String() string {
	return "cairn context key: " + string(k)
}

// ByKey is a sortable collection of Keys.
type ByKey []Key

// UniqueSort sorts the collection lexically,
// dropping duplicate and zero-value Keys.
func (b ByKey) UniqueSort() ByKey {
	set := make(map[Key]struct{}, len(b))
	for _, k := range b {
		if k == "" {
			continue
		}

		set[k] = struct{}{}
	}

	uniqued := make(ByKey, 0, len(set))
	for k := range set {
		uniqued = append(uniqued, k)
	}

	sort.Slice(uniqued, func(i, j int) bool { return uniqued[i] < uniqued[j] })

	return uniqued
}
