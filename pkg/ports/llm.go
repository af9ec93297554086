package ports

import "context"

// ChatModel abstracts the language model behind the reasoning stages.
// Complete sends one system/user exchange and returns the raw text of
// the first choice; callers parse structure out of it themselves.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
