package app

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/ports/primary"
	"github.com/example/stalker/internal/ports/secondary"
)

type monitorFixture struct {
	store    *mockListStore
	expander *mockExpander
	watcher  *fakeWatcher
	runner   *mockRunner
	reporter *recordingReporter
	service  *MonitorServiceImpl
}

func newMonitorFixture(store *mockListStore) *monitorFixture {
	f := &monitorFixture{
		store:    store,
		expander: newMockExpander(),
		watcher:  newFakeWatcher(),
		runner:   newMockRunner(),
		reporter: &recordingReporter{},
	}
	executor := NewExecutor(f.runner, f.reporter)
	f.service = NewMonitorService(f.store, f.expander, f.watcher, executor, f.reporter, nil)
	return f
}

// start runs the monitor in the background and returns a stop function yielding
// Run's error.
func (f *monitorFixture) start(req primary.MonitorRequest) (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.service.Run(ctx, req) }()
	return cancel, done
}

func (f *monitorFixture) changes() []string {
	var paths []string
	for _, o := range f.reporter.find("change", outcome.KindOK) {
		paths = append(paths, o.Subject)
	}
	return paths
}

func TestRunMissingInstance(t *testing.T) {
	f := newMonitorFixture(newMockListStore())

	err := f.service.Run(context.Background(), primary.MonitorRequest{InstanceDir: testDir})
	if !errors.Is(err, outcome.ErrInstanceNotFound) {
		t.Fatalf("expected InstanceNotFound, got %v", err)
	}
	if len(f.watcher.watchedTargets()) != 0 {
		t.Error("expected nothing to be watched")
	}
}

func TestRunMissingStalkList(t *testing.T) {
	store := newMockListStore().withList(testDir, secondary.ActionList, "echo {path}")
	f := newMonitorFixture(store)

	err := f.service.Run(context.Background(), primary.MonitorRequest{InstanceDir: testDir})
	if !errors.Is(err, outcome.ErrInstanceNotFound) {
		t.Fatalf("expected InstanceNotFound, got %v", err)
	}
}

func TestRunEmptyStalkList(t *testing.T) {
	store := newMockListStore().withList(testDir, secondary.StalkList)
	f := newMonitorFixture(store)

	err := f.service.Run(context.Background(), primary.MonitorRequest{InstanceDir: testDir})
	if !errors.Is(err, outcome.ErrListEmpty) {
		t.Fatalf("expected ListEmpty, got %v", err)
	}
}

func TestRunExecutesActionsOnChange(t *testing.T) {
	store := newMockListStore().
		withList(testDir, secondary.StalkList, "/proj").
		withList(testDir, secondary.ActionList, "echo {path}", "make")
	f := newMonitorFixture(store)
	f.expander.nodes["/proj"] = []string{"/proj", "/proj/a.go"}

	cancel, done := f.start(primary.MonitorRequest{InstanceDir: testDir})
	waitFor(t, "both targets watched", func() bool { return len(f.watcher.watchedTargets()) == 2 })

	f.watcher.stream("/proj/a.go").emit("/proj/a.go")
	waitFor(t, "batch to run", func() bool { return len(f.runner.ran()) == 2 })

	if got := f.runner.ran(); !slices.Equal(got, []string{"echo /proj/a.go", "make"}) {
		t.Errorf("unexpected commands %v", got)
	}
	if got := f.changes(); !slices.Equal(got, []string{"/proj/a.go"}) {
		t.Errorf("expected one change reported, got %v", got)
	}
	changed := f.reporter.find("change", outcome.KindOK)
	if changed[0].Message != "changed: /proj/a.go" {
		t.Errorf("unexpected change message %q", changed[0].Message)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("expected nil after cancel, got %v", err)
	}
	if !f.watcher.stream("/proj").isClosed() || !f.watcher.stream("/proj/a.go").isClosed() {
		t.Error("expected every stream closed after run")
	}
}

func TestRunEventsForOneTargetAreSequential(t *testing.T) {
	store := newMockListStore().
		withList(testDir, secondary.StalkList, "/f").
		withList(testDir, secondary.ActionList, "A {path}", "B {path}")
	f := newMonitorFixture(store)

	cancel, done := f.start(primary.MonitorRequest{InstanceDir: testDir})
	defer func() { cancel(); <-done }()
	waitFor(t, "target watched", func() bool { return len(f.watcher.watchedTargets()) == 1 })

	s := f.watcher.stream("/f")
	s.emit("/f")
	s.emit("/f")
	waitFor(t, "both batches", func() bool { return len(f.runner.ran()) == 4 })

	if got := f.runner.ran(); !slices.Equal(got, []string{"A /f", "B /f", "A /f", "B /f"}) {
		t.Errorf("expected batches not to interleave, got %v", got)
	}
}

func TestRunWithoutActionsKeepsMonitoring(t *testing.T) {
	store := newMockListStore().withList(testDir, secondary.StalkList, "/f")
	f := newMonitorFixture(store)

	cancel, done := f.start(primary.MonitorRequest{InstanceDir: testDir})
	waitFor(t, "target watched", func() bool { return len(f.watcher.watchedTargets()) == 1 })

	if got := f.reporter.find("run", outcome.KindListEmpty); len(got) != 1 {
		t.Errorf("expected missing actionlist reported as ListEmpty, got %d", len(got))
	}

	f.watcher.stream("/f").emit("/f")
	waitFor(t, "change reported", func() bool { return len(f.changes()) == 1 })
	if len(f.runner.ran()) != 0 {
		t.Errorf("expected nothing to run, got %v", f.runner.ran())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("expected nil after cancel, got %v", err)
	}
}

func TestRunSkipsTargetsThatFailSetup(t *testing.T) {
	store := newMockListStore().
		withList(testDir, secondary.StalkList, "/gone", "/ok").
		withList(testDir, secondary.ActionList, "echo {path}")
	f := newMonitorFixture(store)
	f.watcher.setupErrs["/gone"] = outcome.New(outcome.KindWatchSetupFailure, "watch", "/gone", errors.New("no such file or directory"))

	cancel, done := f.start(primary.MonitorRequest{InstanceDir: testDir})
	waitFor(t, "watch attempts", func() bool { return len(f.watcher.watchedTargets()) == 2 })

	f.watcher.stream("/ok").emit("/ok")
	waitFor(t, "batch for healthy target", func() bool { return len(f.runner.ran()) == 1 })

	failures := f.reporter.find("watch", outcome.KindWatchSetupFailure)
	if len(failures) != 1 || failures[0].Subject != "/gone" {
		t.Errorf("expected setup failure for /gone reported, got %+v", failures)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("expected nil after cancel, got %v", err)
	}
}

func TestRunFailsWhenNoTargetCanBeWatched(t *testing.T) {
	store := newMockListStore().withList(testDir, secondary.StalkList, "/gone")
	f := newMonitorFixture(store)
	f.watcher.setupErrs["/gone"] = outcome.New(outcome.KindWatchSetupFailure, "watch", "/gone", errors.New("no such file or directory"))

	err := f.service.Run(context.Background(), primary.MonitorRequest{InstanceDir: testDir})
	if !errors.Is(err, outcome.ErrWatchSetupFailure) {
		t.Fatalf("expected WatchSetupFailure, got %v", err)
	}
}

func TestRunLostWatchStopsOnlyThatUnit(t *testing.T) {
	store := newMockListStore().
		withList(testDir, secondary.StalkList, "/a", "/b").
		withList(testDir, secondary.ActionList, "echo {path}")
	f := newMonitorFixture(store)

	cancel, done := f.start(primary.MonitorRequest{InstanceDir: testDir})
	waitFor(t, "both targets watched", func() bool { return len(f.watcher.watchedTargets()) == 2 })

	lostA := f.watcher.stream("/a")
	lostA.errs <- outcome.New(outcome.KindWatchLost, "watch", "/a", errors.New("/a was removed or renamed"))
	waitFor(t, "unit a to stop", lostA.isClosed)

	f.watcher.stream("/b").emit("/b")
	waitFor(t, "unit b to keep running", func() bool { return len(f.runner.ran()) == 1 })

	if got := f.reporter.find("watch", outcome.KindWatchLost); len(got) != 1 || got[0].Subject != "/a" {
		t.Errorf("expected WatchLost for /a reported, got %+v", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("expected nil after cancel, got %v", err)
	}
}

func TestRunReturnsWhenEveryWatchIsLost(t *testing.T) {
	store := newMockListStore().withList(testDir, secondary.StalkList, "/a")
	f := newMonitorFixture(store)

	cancel, done := f.start(primary.MonitorRequest{InstanceDir: testDir})
	defer cancel()
	waitFor(t, "target watched", func() bool { return len(f.watcher.watchedTargets()) == 1 })

	f.watcher.stream("/a").errs <- outcome.New(outcome.KindWatchLost, "watch", "/a", errors.New("event channel closed"))

	if err := <-done; !errors.Is(err, outcome.ErrWatchLost) {
		t.Fatalf("expected WatchLost once every unit stopped, got %v", err)
	}
}

func TestRunRecursiveWatchesEntriesAsIs(t *testing.T) {
	store := newMockListStore().withList(testDir, secondary.StalkList, "/proj")
	f := newMonitorFixture(store)
	f.expander.nodes["/proj"] = []string{"/proj", "/proj/a.go", "/proj/b.go"}

	cancel, done := f.start(primary.MonitorRequest{InstanceDir: testDir, Recursive: true})
	waitFor(t, "target watched", func() bool { return len(f.watcher.watchedTargets()) == 1 })
	cancel()
	<-done

	if got := f.watcher.watchedTargets(); !slices.Equal(got, []string{"/proj"}) {
		t.Errorf("expected a single recursive target, got %v", got)
	}
	f.watcher.mutex.Lock()
	defer f.watcher.mutex.Unlock()
	if !f.watcher.recursive[0] {
		t.Error("expected the watch to be recursive")
	}
}
