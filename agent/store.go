package agent

import (
	"context"
	"errors"
)

// ErrNoSessionKey is returned when the context carries no chat session id.
var ErrNoSessionKey = errors.New("session key not found in context")

// Key prefixes of the per-conversation records kept in a Cache.
const (
	sessionNamespace = "intake:session"
	historyNamespace = "intake:history"
)

// conversationRecord is the value a Cache holds for the chat session id in
// the context, e.g. the list of intake sessions of one conversation.
type conversationRecord[S any] struct {
	core      Cache[S]
	namespace string
}

func newConversationRecord[S any](core Cache[S], namespace string) conversationRecord[S] {
	return conversationRecord[S]{core: core, namespace: namespace}
}

func (r conversationRecord[S]) key(ctx context.Context) (string, error) {
	id, ok := SessionKeyFromContext(ctx)
	if !ok {
		return "", ErrNoSessionKey
	}
	return r.namespace + ":" + id, nil
}

// load returns the zero value for a conversation with no record yet.
func (r conversationRecord[S]) load(ctx context.Context) (S, error) {
	var zero S
	key, err := r.key(ctx)
	if err != nil {
		return zero, err
	}
	val, ok, err := r.core.Get(ctx, key)
	if err != nil || !ok {
		return zero, err
	}
	return val, nil
}

func (r conversationRecord[S]) save(ctx context.Context, val S) error {
	key, err := r.key(ctx)
	if err != nil {
		return err
	}
	return r.core.Set(ctx, key, val)
}

func (r conversationRecord[S]) clear(ctx context.Context) error {
	key, err := r.key(ctx)
	if err != nil {
		return err
	}
	return r.core.Del(ctx, key)
}
