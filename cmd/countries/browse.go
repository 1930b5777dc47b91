package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"countries-go/internal/directory"
	"countries-go/internal/model"
	"countries-go/internal/render"
)

// errQuit ends the browse loop without reporting an error.
var errQuit = errors.New("quit")

// view is the part of *directory.ViewState the browser drives.
type view interface {
	SetSearchText(string)
	SetSortMode(directory.SortMode)
	Refresh() error
	Visible() []model.Country
	Subscribe() (<-chan directory.Snapshot, func())
}

// browser redraws the visible list on every snapshot and applies
// commands read line by line from in.
type browser struct {
	view  view
	in    io.Reader
	out   io.Writer
	width func() int

	mu sync.Mutex // serializes writes to out
}

type command struct {
	name string
	arg  string
}

// parseCommand splits an input line. "/TEXT" is shorthand for "search TEXT".
// The search argument keeps its inner and trailing spaces.
func parseCommand(line string) command {
	line = strings.TrimLeft(line, " \t")
	if rest, ok := strings.CutPrefix(line, "/"); ok {
		return command{name: "search", arg: rest}
	}
	name, arg, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	if name != "search" {
		arg = strings.TrimSpace(arg)
	}
	return command{name: name, arg: arg}
}

func (b *browser) run(ctx context.Context) error {
	updates, unsubscribe := b.view.Subscribe()
	defer unsubscribe()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.draw(ctx, updates) })
	g.Go(func() error { return b.read(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// draw prints a summary and the table for every new snapshot.
func (b *browser) draw(ctx context.Context, updates <-chan directory.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			b.mu.Lock()
			fmt.Fprintf(b.out, "\n%s\n", render.Summary(snap, time.Now()))
			var err error
			if snap.State == directory.StatePopulated && len(snap.Visible) > 0 {
				err = render.Table(b.out, snap.Visible, b.width())
			}
			b.mu.Unlock()
			if err != nil {
				return err
			}
		}
	}
}

// read applies commands until quit, end of input or cancellation.
// A blocked read on a terminal is abandoned when ctx ends; the scanning
// goroutine stays parked in Scan until the process exits.
func (b *browser) read(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(b.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("reading commands: %w", err)
			}
			return errQuit
		case line := <-lines:
			if err := b.apply(parseCommand(line)); err != nil {
				return err
			}
		}
	}
}

func (b *browser) apply(c command) error {
	switch c.name {
	case "":
		return nil
	case "quit", "q", "exit":
		return errQuit
	case "search":
		b.view.SetSearchText(c.arg)
	case "sort":
		mode, err := directory.ParseSortMode(c.arg)
		if err != nil {
			b.say("%v", err)
			return nil
		}
		b.view.SetSortMode(mode)
	case "refresh":
		return b.view.Refresh()
	case "details":
		b.details(c.arg)
	default:
		b.say("unknown command %q (try search, sort, details, refresh, quit)", c.name)
	}
	return nil
}

func (b *browser) details(arg string) {
	row := 1
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			b.say("details wants a row number, got %q", arg)
			return
		}
		row = n
	}

	visible := b.view.Visible()
	if row > len(visible) {
		b.say("no row %d (%d visible)", row, len(visible))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintln(b.out)
	render.Details(b.out, visible[row-1])
}

func (b *browser) say(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format+"\n", args...)
}
