package masto

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"net/url"
)

type direction int

const (
	directionNext direction = iota
	directionPrevious
)

// Paginator walks a Link-header paginated collection one page at a time.
//
// Mastodon lists are reverse-chronological: Next moves to older items and
// Previous to newer ones. A Paginator is not safe for concurrent steps; each
// Next or Previous call must return before the following one starts, since
// the recorded links depend on the previous result.
type Paginator[T any] struct {
	getter      Getter
	path        string
	params      url.Values
	opts        []RequestOption
	nextURL     string
	previousURL string
	started     bool
}

// NewPaginator creates a paginator whose first step requests path with params.
func NewPaginator[T any](getter Getter, path string, params url.Values, opts ...RequestOption) *Paginator[T] {
	return &Paginator[T]{
		getter: getter,
		path:   path,
		params: maps.Clone(params),
		opts:   opts,
	}
}

// HasNext reports whether Next may return more items.
func (p *Paginator[T]) HasNext() bool {
	return !p.started || p.nextURL != ""
}

// HasPrevious reports whether Previous may return more items.
func (p *Paginator[T]) HasPrevious() bool {
	return !p.started || p.previousURL != ""
}

// Next fetches the following (older) page. Once the forward direction is
// exhausted it returns an empty page without a request.
func (p *Paginator[T]) Next(ctx context.Context) ([]T, error) {
	return p.step(ctx, directionNext)
}

// Previous fetches the preceding (newer) page. Once the backward direction is
// exhausted it returns an empty page without a request.
func (p *Paginator[T]) Previous(ctx context.Context) ([]T, error) {
	return p.step(ctx, directionPrevious)
}

func (p *Paginator[T]) step(ctx context.Context, dir direction) ([]T, error) {
	path, query := p.path, p.params

	if p.started {
		target := p.nextURL
		if dir == directionPrevious {
			target = p.previousURL
		}

		if target == "" {
			return nil, nil
		}

		path, query = target, nil
	}

	resp, err := p.getter.Get(ctx, path, query, p.opts...)
	if err != nil {
		return nil, err
	}

	var items []T

	if len(resp.Body) > 0 {
		err = json.Unmarshal(resp.Body, &items)
		if err != nil {
			return nil, fmt.Errorf("parsing page %s: %w", path, err)
		}
	}

	p.started = true
	p.record(dir, resp.Links)

	return items, nil
}

// record overwrites the direction just used and only fills the opposite one
// when the response advertises it.
func (p *Paginator[T]) record(dir direction, links PageLinks) {
	switch dir {
	case directionNext:
		p.nextURL = links.Next
		if links.Previous != "" {
			p.previousURL = links.Previous
		}
	case directionPrevious:
		p.previousURL = links.Previous
		if links.Next != "" {
			p.nextURL = links.Next
		}
	}
}

// Pages yields forward pages until an empty page or an error.
func (p *Paginator[T]) Pages(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for {
			page, err := p.Next(ctx)
			if err != nil {
				yield(nil, err)

				return
			}

			if len(page) == 0 {
				return
			}

			if !yield(page, nil) {
				return
			}
		}
	}
}

// Items flattens Pages into individual items.
func (p *Paginator[T]) Items(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for page, err := range p.Pages(ctx) {
			if err != nil {
				var zero T

				yield(zero, err)

				return
			}

			for _, item := range page {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// All collects every remaining forward item.
func (p *Paginator[T]) All(ctx context.Context) ([]T, error) {
	var all []T

	for item, err := range p.Items(ctx) {
		if err != nil {
			return nil, err
		}

		all = append(all, item)
	}

	return all, nil
}

// ForEach calls fn for every remaining forward item, stopping at the first
// error.
func (p *Paginator[T]) ForEach(ctx context.Context, fn func(T) error) error {
	for item, err := range p.Items(ctx) {
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}
