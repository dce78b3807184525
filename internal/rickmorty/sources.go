package rickmorty

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pders01/rmql/internal/fetch"
	"github.com/pders01/rmql/internal/graphql"
)

// Transport starts a cancellable GraphQL call. *graphql.Client satisfies it.
type Transport interface {
	StartCall(req graphql.Request, onComplete func(*graphql.Response, error)) fetch.CancelHandle
}

// extractor decodes the data member. ok is false when the results list is
// absent, which is treated like a response without data.
type extractor[T any] func(data json.RawMessage) (info *pageInfo, items []T, ok bool, err error)

// Characters pages through GetCharacters.
func Characters(t Transport) fetch.PageSource[Character] {
	return source(t, getCharacters, func(data json.RawMessage) (*pageInfo, []Character, bool, error) {
		var d charactersData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, nil, false, err
		}
		if d.Characters == nil || d.Characters.Results == nil {
			return nil, nil, false, nil
		}
		items := make([]Character, 0, len(d.Characters.Results))
		for _, r := range d.Characters.Results {
			if r != nil {
				items = append(items, r.model())
			}
		}
		return d.Characters.Info, items, true, nil
	})
}

// Locations pages through SearchLocations.
func Locations(t Transport) fetch.PageSource[Location] {
	return source(t, searchLocations, func(data json.RawMessage) (*pageInfo, []Location, bool, error) {
		var d locationsData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, nil, false, err
		}
		if d.Locations == nil || d.Locations.Results == nil {
			return nil, nil, false, nil
		}
		items := make([]Location, 0, len(d.Locations.Results))
		for _, r := range d.Locations.Results {
			if r != nil {
				items = append(items, r.model())
			}
		}
		return d.Locations.Info, items, true, nil
	})
}

func source[T any](t Transport, op *graphql.Operation, extract extractor[T]) fetch.PageSource[T] {
	return func(req fetch.PageRequest, onComplete func(fetch.PageResponse[T], error)) fetch.CancelHandle {
		vars := map[string]any{"page": req.Page, "name": nil}
		if req.Filter != "" {
			vars["name"] = req.Filter
		}

		gqlReq, err := op.Request(vars)
		if err != nil {
			onComplete(fetch.PageResponse[T]{}, err)
			return nil
		}

		return t.StartCall(gqlReq, func(resp *graphql.Response, err error) {
			if err != nil {
				onComplete(fetch.PageResponse[T]{}, &fetch.TransportError{Op: op.Name, Err: err})
				return
			}
			onComplete(toPage(op, resp, extract))
		})
	}
}

// toPage prefers data over errors, so partial results still render.
func toPage[T any](op *graphql.Operation, resp *graphql.Response, extract extractor[T]) (fetch.PageResponse[T], error) {
	if resp != nil && resp.HasData() {
		info, items, ok, err := extract(resp.Data)
		if err != nil {
			return fetch.PageResponse[T]{}, &fetch.TransportError{
				Op:  op.Name,
				Err: fmt.Errorf("decoding %s data: %w", op.Name, err),
			}
		}
		if ok {
			out := fetch.PageResponse[T]{Items: items}
			if info != nil {
				out.Next = num(info.Next)
				out.Count = num(info.Count)
				out.Pages = num(info.Pages)
			}
			return out, nil
		}
	}

	if resp != nil && len(resp.Errors) > 0 {
		return fetch.PageResponse[T]{}, &fetch.TransportError{Op: op.Name, Messages: resp.Messages()}
	}
	return fetch.PageResponse[T]{}, fetch.ErrEmptyResponse
}

func NewCharacterSearch(t Transport, debounce time.Duration) *fetch.Search[Character] {
	return fetch.NewSearch(fetch.NewList("characters", Characters(t)), debounce, nil)
}

func NewLocationSearch(t Transport, debounce time.Duration) *fetch.Search[Location] {
	return fetch.NewSearch(fetch.NewList("locations", Locations(t)), debounce, nil)
}
