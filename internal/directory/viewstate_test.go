package directory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"countries-go/internal/directory"
	"countries-go/internal/model"
	"countries-go/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newViewState(t *testing.T, client directory.Client, opts ...directory.Option) (*directory.ViewState, *testutil.RecordingLogger) {
	t.Helper()
	logger := testutil.NewRecordingLogger()
	opts = append([]directory.Option{
		directory.WithLogger(logger),
		directory.WithClock(testutil.FixedClock()),
		directory.WithIDGenerator(testutil.NewStubIDGenerator()),
	}, opts...)
	vs := directory.NewViewState(context.Background(), client, opts...)
	t.Cleanup(func() { vs.Close() })
	return vs, logger
}

func wait(t *testing.T, vs *directory.ViewState) (directory.State, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return vs.Wait(ctx)
}

func waitStarted(t *testing.T, c *testutil.ScriptedClient, call int) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case n := <-c.Started():
			if n == call {
				return
			}
		case <-timeout:
			t.Fatalf("fetch %d never started", call)
		}
	}
}

func TestViewState_Populates(t *testing.T) {
	vs, logger := newViewState(t, testutil.Succeeding(nordics()),
		directory.WithSearchText("fi"),
		directory.WithSortMode(directory.SortAlphabetical),
	)

	state, err := wait(t, vs)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if state != directory.StatePopulated {
		t.Fatalf("Wait() state = %v, want populated", state)
	}

	if diff := cmp.Diff([]string{"Fiji", "Finland"}, testutil.Names(vs.Visible())); diff != "" {
		t.Errorf("Visible() mismatch (-want +got):\n%s", diff)
	}

	snap := vs.Snapshot()
	if snap.Total != 3 {
		t.Errorf("Snapshot().Total = %d, want 3", snap.Total)
	}
	if !snap.FetchedAt.Equal(testutil.FixedClock().Now()) {
		t.Errorf("Snapshot().FetchedAt = %v", snap.FetchedAt)
	}
	if snap.Err != nil {
		t.Errorf("Snapshot().Err = %v, want nil", snap.Err)
	}

	infos := logger.ByLevel("INFO")
	if len(infos) != 1 || infos[0].Attr("count") != 3 {
		t.Errorf("info logs = %v, want one entry with count 3", infos)
	}
	if n := len(logger.ByLevel("ERROR")); n != 0 {
		t.Errorf("error logs = %d, want 0", n)
	}
}

func TestViewState_TransportFailure(t *testing.T) {
	vs, logger := newViewState(t, testutil.Failing(testutil.ErrUnreachable))

	state, err := wait(t, vs)
	if state != directory.StateFailed {
		t.Fatalf("Wait() state = %v, want failed", state)
	}
	var transport *directory.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("Wait() error = %v, want TransportError", err)
	}

	snap := vs.Snapshot()
	if snap.Total != 0 || len(snap.Visible) != 0 {
		t.Errorf("Snapshot() total=%d visible=%d, want empty", snap.Total, len(snap.Visible))
	}
	if snap.Visible == nil {
		t.Error("Snapshot().Visible = nil, want empty slice")
	}

	errs := logger.ByLevel("ERROR")
	if len(errs) != 1 {
		t.Fatalf("error logs = %v, want exactly one", errs)
	}
	if kind := errs[0].Attr("kind"); kind != "transport" {
		t.Errorf("error log kind = %v, want transport", kind)
	}
}

func TestViewState_ServerFailureLogsStatus(t *testing.T) {
	vs, logger := newViewState(t, testutil.Failing(&directory.ServerError{StatusCode: 500, Status: "Internal Server Error"}))

	if state, _ := wait(t, vs); state != directory.StateFailed {
		t.Fatalf("Wait() state = %v, want failed", state)
	}
	errs := logger.ByLevel("ERROR")
	if len(errs) != 1 || errs[0].Attr("status_code") != 500 {
		t.Errorf("error logs = %v, want one entry with status_code 500", errs)
	}
}

func TestViewState_Setters(t *testing.T) {
	vs, _ := newViewState(t, testutil.Succeeding(nordics()))
	if _, err := wait(t, vs); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	vs.SetSortMode(directory.SortDescending)
	if diff := cmp.Diff([]string{"Sweden", "Finland", "Fiji"}, testutil.Names(vs.Visible())); diff != "" {
		t.Errorf("after SetSortMode (-want +got):\n%s", diff)
	}

	vs.SetSearchText("F")
	if diff := cmp.Diff([]string{"Finland", "Fiji"}, testutil.Names(vs.Visible())); diff != "" {
		t.Errorf("after SetSearchText (-want +got):\n%s", diff)
	}

	vs.SetSearchText("")
	if got := len(vs.Visible()); got != 3 {
		t.Errorf("after clearing search len(Visible()) = %d, want 3", got)
	}

	t.Run("same value is a no-op", func(t *testing.T) {
		before := vs.Snapshot().Version
		vs.SetSearchText(vs.SearchText())
		vs.SetSortMode(vs.SortMode())
		if after := vs.Snapshot().Version; after != before {
			t.Errorf("Version changed from %d to %d", before, after)
		}
	})
}

func TestViewState_InputsApplyWhileLoading(t *testing.T) {
	gate := make(chan struct{})
	client := testutil.NewScriptedClient(testutil.Response{Countries: nordics(), Gate: gate})
	vs, _ := newViewState(t, client)
	waitStarted(t, client, 1)

	if got := vs.State(); got != directory.StateLoading {
		t.Fatalf("State() = %v, want loading", got)
	}
	vs.SetSearchText("fi")
	vs.SetSortMode(directory.SortAscending)
	if got := vs.Visible(); len(got) != 0 {
		t.Errorf("Visible() while loading = %v, want empty", got)
	}

	close(gate)
	if _, err := wait(t, vs); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Fiji", "Finland"}, testutil.Names(vs.Visible())); diff != "" {
		t.Errorf("Visible() mismatch (-want +got):\n%s", diff)
	}
}

func TestViewState_RefreshSupersedesInFlightFetch(t *testing.T) {
	stale := []model.Country{testutil.Country("Stale", 1)}
	fresh := []model.Country{testutil.Country("Fresh", 2)}
	client := testutil.NewScriptedClient(
		testutil.Response{Countries: stale, Gate: make(chan struct{})},
		testutil.Response{Countries: fresh},
	)
	vs, logger := newViewState(t, client)
	waitStarted(t, client, 1)

	if err := vs.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	state, err := wait(t, vs)
	if err != nil || state != directory.StatePopulated {
		t.Fatalf("Wait() = %v, %v; want populated", state, err)
	}
	if diff := cmp.Diff([]string{"Fresh"}, testutil.Names(vs.Visible())); diff != "" {
		t.Errorf("Visible() mismatch (-want +got):\n%s", diff)
	}
	if n := len(logger.ByLevel("ERROR")); n != 0 {
		t.Errorf("superseded fetch logged %d errors, want 0", n)
	}
}

func TestViewState_RefreshAfterFailure(t *testing.T) {
	client := testutil.NewScriptedClient(
		testutil.Response{Err: &directory.DecodeError{Err: errors.New("missing name")}},
		testutil.Response{Countries: nordics()},
	)
	vs, _ := newViewState(t, client)

	if state, _ := wait(t, vs); state != directory.StateFailed {
		t.Fatalf("first Wait() state = %v, want failed", state)
	}
	if err := vs.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	state, err := wait(t, vs)
	if err != nil || state != directory.StatePopulated {
		t.Fatalf("second Wait() = %v, %v; want populated", state, err)
	}
	if vs.Snapshot().Err != nil {
		t.Error("Snapshot().Err not cleared after successful refresh")
	}
}

func TestViewState_RefreshFailureKeepsLastGoodList(t *testing.T) {
	client := testutil.NewScriptedClient(
		testutil.Response{Countries: nordics()},
		testutil.Response{Err: errors.New("boom")},
	)
	vs, logger := newViewState(t, client, directory.WithSortMode(directory.SortDescending))

	if state, err := wait(t, vs); err != nil || state != directory.StatePopulated {
		t.Fatalf("first Wait() = %v, %v; want populated", state, err)
	}
	if err := vs.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if state, _ := wait(t, vs); state != directory.StateFailed {
		t.Fatalf("second Wait() state = %v, want failed", state)
	}

	if diff := cmp.Diff([]string{"Sweden", "Finland", "Fiji"}, testutil.Names(vs.Visible())); diff != "" {
		t.Errorf("Visible() after failed refresh (-want +got):\n%s", diff)
	}
	if total := vs.Snapshot().Total; total != 3 {
		t.Errorf("Snapshot().Total = %d, want 3", total)
	}
	if n := len(logger.ByLevel("ERROR")); n != 1 {
		t.Errorf("error log entries = %d, want 1", n)
	}
}

func TestViewState_CloseCancelsFetch(t *testing.T) {
	client := testutil.NewScriptedClient(testutil.Response{Countries: nordics(), Gate: make(chan struct{})})
	vs, logger := newViewState(t, client)
	updates, _ := vs.Subscribe()
	waitStarted(t, client, 1)

	if err := vs.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := client.Returned(); got != 1 {
		t.Errorf("FetchAll returned %d times after Close, want 1", got)
	}
	if got := vs.State(); got != directory.StateLoading {
		t.Errorf("State() after Close = %v, want loading (result discarded)", got)
	}
	if n := len(logger.ByLevel("ERROR")); n != 0 {
		t.Errorf("cancelled fetch logged %d errors, want 0", n)
	}

	if err := vs.Refresh(); !errors.Is(err, directory.ErrClosed) {
		t.Errorf("Refresh() after Close error = %v, want ErrClosed", err)
	}
	if _, err := vs.Wait(context.Background()); !errors.Is(err, directory.ErrClosed) {
		t.Errorf("Wait() after Close error = %v, want ErrClosed", err)
	}

	for range updates {
	}
	if _, ok := <-updates; ok {
		t.Error("subscriber channel still open after Close")
	}
	if err := vs.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestViewState_Subscribe(t *testing.T) {
	gate := make(chan struct{})
	client := testutil.NewScriptedClient(testutil.Response{Countries: nordics(), Gate: gate})
	vs, _ := newViewState(t, client)

	updates, unsubscribe := vs.Subscribe()
	defer unsubscribe()

	first := <-updates
	if first.State != directory.StateLoading {
		t.Errorf("first snapshot state = %v, want loading", first.State)
	}

	close(gate)
	vs.SetSortMode(directory.SortDescending)

	last := first
	timeout := time.After(5 * time.Second)
	for last.State != directory.StatePopulated || last.SortMode != directory.SortDescending {
		select {
		case snap := <-updates:
			if snap.Version <= last.Version {
				t.Fatalf("version went from %d to %d", last.Version, snap.Version)
			}
			last = snap
		case <-timeout:
			t.Fatalf("no populated snapshot; last = %+v", last)
		}
	}

	if diff := cmp.Diff([]string{"Sweden", "Finland", "Fiji"}, testutil.Names(last.Visible)); diff != "" {
		t.Errorf("snapshot Visible mismatch (-want +got):\n%s", diff)
	}

	t.Run("unsubscribe closes the channel", func(t *testing.T) {
		ch, stop := vs.Subscribe()
		<-ch
		stop()
		stop()
		if _, ok := <-ch; ok {
			t.Error("channel open after unsubscribe")
		}
	})

	t.Run("subscribe after close", func(t *testing.T) {
		other, _ := newViewState(t, testutil.Succeeding(nil))
		other.Close()
		ch, stop := other.Subscribe()
		defer stop()
		if _, ok := <-ch; ok {
			t.Error("Subscribe() after Close returned an open channel")
		}
	})
}

func TestViewState_SubscriberCanCallSetters(t *testing.T) {
	vs, _ := newViewState(t, testutil.Succeeding(nordics()))
	updates, unsubscribe := vs.Subscribe()
	defer unsubscribe()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.State != directory.StatePopulated {
				continue
			}
			if snap.SearchText == "" {
				vs.SetSearchText("swe")
				continue
			}
			if diff := cmp.Diff([]string{"Sweden"}, testutil.Names(snap.Visible)); diff != "" {
				t.Errorf("Visible mismatch (-want +got):\n%s", diff)
			}
			return
		case <-timeout:
			t.Fatal("timed out waiting for filtered snapshot")
		}
	}
}
