package gate

import "context"

// Policy defines authorization rules for one resource kind.
type Policy[U any] interface {
	// Can returns true if subject may perform action on resource.
	// For list/create, resource may be nil.
	Can(ctx context.Context, subject U, action Action, resource any) bool
}

// PolicyFunc adapts an ordinary function to a Policy.
type PolicyFunc[U any] func(ctx context.Context, subject U, action Action, resource any) bool

// Can calls f.
func (f PolicyFunc[U]) Can(ctx context.Context, subject U, action Action, resource any) bool {
	return f(ctx, subject, action, resource)
}
