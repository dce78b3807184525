package fetch

import "context"

// PageRequest identifies one logical page fetch. An empty Filter means no
// name filter.
type PageRequest struct {
	Page   int
	Filter string
}

// PageResponse is one mapped page. Next is the following page number, or 0
// when this is the last page.
type PageResponse[T any] struct {
	Items []T
	Next  int
	Count int
	Pages int
}

// PageSource issues a page request against a transport and reports the
// mapped outcome through onComplete.
type PageSource[T any] func(req PageRequest, onComplete func(PageResponse[T], error)) CancelHandle

// Fetch runs one request to completion, cancelling it when ctx ends.
func (s PageSource[T]) Fetch(ctx context.Context, req PageRequest) (PageResponse[T], error) {
	return Execute(ctx, func(onComplete func(PageResponse[T], error)) CancelHandle {
		return s(req, onComplete)
	}).Result()
}

// FetchAll follows Next from page 1 until the last page or maxPages pages
// have been read. maxPages <= 0 means no limit.
func (s PageSource[T]) FetchAll(ctx context.Context, filter string, maxPages int) ([]T, error) {
	var items []T
	page := 1
	for n := 0; page > 0 && (maxPages <= 0 || n < maxPages); n++ {
		resp, err := s.Fetch(ctx, PageRequest{Page: page, Filter: filter})
		if err != nil {
			return items, err
		}
		items = append(items, resp.Items...)
		page = resp.Next
	}
	return items, nil
}

// State is a snapshot of one list as published to subscribers.
type State[T any] struct {
	Items       []T
	IsLoading   bool
	Err         *ErrorInfo
	IsLoaded    bool
	CurrentPage int
	NextPage    int
	FilterText  string
	TotalCount  int

	// Version increases with every published change.
	Version uint64
}

// HasMore reports whether another page can be requested.
func (s State[T]) HasMore() bool { return s.NextPage > 0 }

func (s State[T]) clone() State[T] {
	c := s
	if s.Items != nil {
		c.Items = make([]T, len(s.Items))
		copy(c.Items, s.Items)
	}
	return c
}

func initialState[T any]() State[T] {
	return State[T]{CurrentPage: 1, NextPage: 1}
}
