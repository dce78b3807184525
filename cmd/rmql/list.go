package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pders01/rmql/internal/debuglog"
	"github.com/pders01/rmql/internal/fetch"
	"github.com/pders01/rmql/internal/rickmorty"
)

type listKind string

const (
	charactersKind listKind = "characters"
	locationsKind  listKind = "locations"
)

type listOptions struct {
	name  string
	page  int
	all   bool
	plain bool
}

func newListCmd(kind listKind) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: fmt.Sprintf("List %s, optionally filtered by name", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.page < 1 {
				return fmt.Errorf("--page must be at least 1, got %d", opts.page)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer debuglog.Close()

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := newClient(cfg)
			switch kind {
			case locationsKind:
				return printList(ctx, cmd.OutOrStdout(), rickmorty.Locations(client), kind, opts, locationRow)
			default:
				return printList(ctx, cmd.OutOrStdout(), rickmorty.Characters(client), kind, opts, characterRow)
			}
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "filter by name")
	cmd.Flags().IntVar(&opts.page, "page", 1, "page to start from; earlier pages are skipped")
	cmd.Flags().BoolVar(&opts.all, "all", false, "follow pages until the end")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "tab-separated output without borders")
	return cmd
}

var (
	characterHeaders = []string{"ID", "NAME", "STATUS", "SPECIES", "LOCATION", "EPISODES"}
	locationHeaders  = []string{"ID", "NAME", "TYPE", "DIMENSION", "RESIDENTS"}
)

func characterRow(c rickmorty.Character) []string {
	return []string{c.ID, c.Name, c.Status, c.Species, c.Location, strconv.Itoa(c.Episodes)}
}

func locationRow(l rickmorty.Location) []string {
	return []string{l.ID, l.Name, l.Type, l.Dimension, strconv.Itoa(l.Residents)}
}

// collect drives a List the way the UI does: load a page, wait for the
// snapshot to settle and keep calling LoadNextPage while more is wanted.
func collect[T any](ctx context.Context, l *fetch.List[T], opts *listOptions) (fetch.State[T], error) {
	settled := make(chan struct{}, 1)
	unsub := l.Subscribe(func(fetch.State[T]) {
		select {
		case settled <- struct{}{}:
		default:
		}
	})
	defer unsub()

	l.LoadPage(opts.page, opts.name)
	for {
		select {
		case <-ctx.Done():
			l.Cancel()
			return l.Snapshot(), ctx.Err()
		case <-settled:
		}

		s := l.Snapshot()
		if s.IsLoading {
			continue
		}
		if s.Err != nil {
			return s, s.Err
		}
		if !opts.all || !s.HasMore() {
			return s, nil
		}
		debuglog.Debugf("%s: following to page %d", l.Name(), s.NextPage)
		l.LoadNextPage()
	}
}

// listing is what the list commands print.
type listing[T any] struct {
	items []T
	total int
	next  int
}

// fetchFrom reads pages starting past page 1 straight from the source, so
// the list controller only ever holds pages counted from the first.
func fetchFrom[T any](ctx context.Context, src fetch.PageSource[T], opts *listOptions) (listing[T], error) {
	var out listing[T]
	page := opts.page
	for page > 0 {
		resp, err := src.Fetch(ctx, fetch.PageRequest{Page: page, Filter: opts.name})
		if err != nil {
			if info := fetch.Describe(err); info != nil {
				return out, info
			}
			return out, err
		}
		out.items = append(out.items, resp.Items...)
		out.total, out.next = resp.Count, resp.Next
		if !opts.all {
			break
		}
		page = resp.Next
	}
	return out, nil
}

func load[T any](ctx context.Context, src fetch.PageSource[T], kind listKind, opts *listOptions) (listing[T], error) {
	if opts.page > 1 {
		return fetchFrom(ctx, src, opts)
	}
	l := fetch.NewList(string(kind), src)
	defer l.Close()

	s, err := collect(ctx, l, opts)
	if err != nil {
		return listing[T]{}, err
	}
	return listing[T]{items: s.Items, total: s.TotalCount, next: s.NextPage}, nil
}

func printList[T any](ctx context.Context, w io.Writer, src fetch.PageSource[T], kind listKind, opts *listOptions, row func(T) []string) error {
	s, err := load(ctx, src, kind, opts)
	if err != nil {
		return err
	}

	headers := characterHeaders
	if kind == locationsKind {
		headers = locationHeaders
	}
	rows := make([][]string, 0, len(s.items))
	for _, it := range s.items {
		rows = append(rows, row(it))
	}

	if opts.plain {
		for _, r := range rows {
			for i, cell := range r {
				if i > 0 {
					fmt.Fprint(w, "\t")
				}
				fmt.Fprint(w, cell)
			}
			fmt.Fprintln(w)
		}
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#44B5D0"))).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())

	footer := fmt.Sprintf("%d of %d %s", len(s.items), s.total, kind)
	if opts.page > 1 {
		footer += fmt.Sprintf(" from page %d", opts.page)
	}
	if s.next > 0 {
		footer += fmt.Sprintf(" • next page: %d", s.next)
	}
	fmt.Fprintln(w, footer)
	return nil
}
