package commenttree

import "errors"

// ErrSkipReplies can be returned from a WalkFunc to skip the replies of the
// current node.
var ErrSkipReplies = errors.New("skip replies")

// WalkFunc is called for each node; roots are at depth 0.
type WalkFunc[T any] func(node *Node[T], depth int) error

type frame[T any] struct {
	node  *Node[T]
	depth int
}

// Walk visits the forest depth-first, parents before replies, in order.
// It stops at the first error other than ErrSkipReplies and returns it.
func (f Forest[T]) Walk(fn WalkFunc[T]) error {
	stack := make([]frame[T], 0, len(f))
	for i := len(f) - 1; i >= 0; i-- {
		stack = append(stack, frame[T]{node: f[i]})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fn(top.node, top.depth); err != nil {
			if errors.Is(err, ErrSkipReplies) {
				continue
			}
			return err
		}

		replies := top.node.Replies
		for i := len(replies) - 1; i >= 0; i-- {
			stack = append(stack, frame[T]{node: replies[i], depth: top.depth + 1})
		}
	}
	return nil
}

// Count returns the number of nodes in the forest, replies included.
func (f Forest[T]) Count() int {
	count := 0
	_ = f.Walk(func(*Node[T], int) error {
		count++
		return nil
	})
	return count
}

// Depth returns the number of levels in the forest. An empty forest has
// depth 0 and a forest of bare roots has depth 1.
func (f Forest[T]) Depth() int {
	depth := 0
	_ = f.Walk(func(_ *Node[T], d int) error {
		if d+1 > depth {
			depth = d + 1
		}
		return nil
	})
	return depth
}

// Flatten returns the items in depth-first order.
func (f Forest[T]) Flatten() []T {
	items := make([]T, 0, len(f))
	_ = f.Walk(func(n *Node[T], _ int) error {
		items = append(items, n.Item)
		return nil
	})
	return items
}
