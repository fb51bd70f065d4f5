package util

import "github.com/samber/mo"

// Stack is a LIFO of T. The zero value is ready to use.
type Stack[T any] []T

func (s *Stack[T]) Push(item T) {
	*s = append(*s, item)
}

// Pop removes and returns the top item, if any.
func (s *Stack[T]) Pop() mo.Option[T] {
	n := len(*s)
	if n == 0 {
		return mo.None[T]()
	}
	top := (*s)[n-1]
	*s = (*s)[:n-1]
	return mo.Some(top)
}
