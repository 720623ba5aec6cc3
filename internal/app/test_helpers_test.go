package app

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/example/stalker/internal/core/entry"
	"github.com/example/stalker/internal/core/outcome"
	"github.com/example/stalker/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// Ensure mocks implement the interfaces
var (
	_ secondary.ListStore     = (*mockListStore)(nil)
	_ secondary.PathExpander  = (*mockExpander)(nil)
	_ secondary.CommandRunner = (*mockRunner)(nil)
	_ secondary.Reporter      = (*recordingReporter)(nil)
	_ secondary.ChangeWatcher = (*fakeWatcher)(nil)
	_ secondary.ChangeStream  = (*fakeStream)(nil)
)

// mockListStore implements secondary.ListStore in memory.
type mockListStore struct {
	mutex     sync.Mutex
	instances map[string]bool
	lists     map[string][]string // present key means the file exists
	lineErrs  map[string][]error  // yielded after the entries

	instanceErr   error
	createListErr error
	appendErr     error
	appendCalls   int
}

func newMockListStore() *mockListStore {
	return &mockListStore{
		instances: make(map[string]bool),
		lists:     make(map[string][]string),
		lineErrs:  make(map[string][]error),
	}
}

func listKey(dir string, list secondary.ListName) string {
	return dir + "/" + string(list)
}

// withList seeds an instance with a list file holding entries.
func (m *mockListStore) withList(dir string, list secondary.ListName, entries ...string) *mockListStore {
	m.instances[dir] = true
	m.lists[listKey(dir, list)] = append([]string{}, entries...)
	return m
}

func (m *mockListStore) entries(dir string, list secondary.ListName) []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.lists[listKey(dir, list)]...)
}

func (m *mockListStore) CreateInstanceDir(ctx context.Context, dir string) error {
	if m.instanceErr != nil {
		return m.instanceErr
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.instances[dir] = true
	return nil
}

func (m *mockListStore) InstanceExists(ctx context.Context, dir string) (bool, error) {
	if m.instanceErr != nil {
		return false, m.instanceErr
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.instances[dir], nil
}

func (m *mockListStore) CreateList(ctx context.Context, dir string, list secondary.ListName) error {
	if m.createListErr != nil {
		return m.createListErr
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.instances[dir] {
		return outcome.New(outcome.KindInstanceNotFound, "create", dir, errors.New("instance directory does not exist"))
	}
	m.lists[listKey(dir, list)] = []string{}
	return nil
}

func (m *mockListStore) ListExists(ctx context.Context, dir string, list secondary.ListName) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, ok := m.lists[listKey(dir, list)]
	return ok, nil
}

func (m *mockListStore) Append(ctx context.Context, dir string, list secondary.ListName, e string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.appendCalls++
	if m.appendErr != nil {
		return m.appendErr
	}
	key := listKey(dir, list)
	if _, ok := m.lists[key]; !ok {
		return outcome.New(outcome.KindInstanceNotFound, "append", list.Label(), errors.New("list not found"))
	}
	m.lists[key] = append(m.lists[key], e)
	return nil
}

func (m *mockListStore) All(dir string, list secondary.ListName) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		m.mutex.Lock()
		key := listKey(dir, list)
		entries, ok := m.lists[key]
		entries = append([]string(nil), entries...)
		errs := m.lineErrs[key]
		m.mutex.Unlock()

		if !ok {
			yield("", outcome.New(outcome.KindInstanceNotFound, "read", list.Label(), errors.New("list not found")))
			return
		}
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
		for _, err := range errs {
			if !yield("", err) {
				return
			}
		}
	}
}

func (m *mockListStore) RemoveMatching(ctx context.Context, dir string, list secondary.ListName, targets []string) ([]string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	key := listKey(dir, list)
	entries, ok := m.lists[key]
	if !ok {
		return nil, outcome.New(outcome.KindInstanceNotFound, "remove", list.Label(), errors.New("cannot find "+string(list)))
	}
	if len(entries) == 0 {
		return nil, outcome.New(outcome.KindListEmpty, "remove", list.Label(), errors.New(string(list)+" is empty"))
	}

	lines := make([]entry.Line, len(entries))
	for i, e := range entries {
		lines[i] = entry.Line{Raw: []byte(e), Valid: true}
	}
	result := entry.RemoveMatching(lines, targets)
	kept := make([]string, len(result.Kept))
	for i, l := range result.Kept {
		kept[i] = l.Text()
	}
	m.lists[key] = kept
	return result.Removed, nil
}

// mockExpander implements secondary.PathExpander. Roots without a configured tree
// expand to themselves.
type mockExpander struct {
	nodes map[string][]string
	errs  map[string][]error
}

func newMockExpander() *mockExpander {
	return &mockExpander{nodes: make(map[string][]string), errs: make(map[string][]error)}
}

func (m *mockExpander) Expand(ctx context.Context, root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		nodes, ok := m.nodes[root]
		if !ok {
			nodes = []string{root}
		}
		for _, n := range nodes {
			if !yield(n, nil) {
				return
			}
		}
		for _, err := range m.errs[root] {
			if !yield("", err) {
				return
			}
		}
	}
}

// mockRunner implements secondary.CommandRunner. Unconfigured commands echo
// themselves on stdout.
type mockRunner struct {
	mutex     sync.Mutex
	commands  []string
	responses map[string]mockResponse
	onRun     func(command string)
}

type mockResponse struct {
	out *secondary.CommandOutput
	err error
}

func newMockRunner() *mockRunner {
	return &mockRunner{responses: make(map[string]mockResponse)}
}

func (m *mockRunner) respond(command string, out *secondary.CommandOutput, err error) {
	m.responses[command] = mockResponse{out: out, err: err}
}

func (m *mockRunner) Run(ctx context.Context, command string) (*secondary.CommandOutput, error) {
	if m.onRun != nil {
		m.onRun(command)
	}
	m.mutex.Lock()
	m.commands = append(m.commands, command)
	resp, ok := m.responses[command]
	m.mutex.Unlock()

	if ok {
		return resp.out, resp.err
	}
	return &secondary.CommandOutput{Stdout: []byte(command + "\n")}, nil
}

func (m *mockRunner) ran() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.commands...)
}

// recordingReporter implements secondary.Reporter and keeps every outcome.
type recordingReporter struct {
	mutex    sync.Mutex
	outcomes []outcome.Outcome
}

func (r *recordingReporter) Report(o outcome.Outcome) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingReporter) all() []outcome.Outcome {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]outcome.Outcome(nil), r.outcomes...)
}

func (r *recordingReporter) count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.outcomes)
}

// find returns outcomes with the given op, and kind when kind is not empty.
func (r *recordingReporter) find(op string, kind outcome.Kind) []outcome.Outcome {
	var found []outcome.Outcome
	for _, o := range r.all() {
		if o.Op == op && (kind == "" || o.Kind == kind) {
			found = append(found, o)
		}
	}
	return found
}

// fakeWatcher implements secondary.ChangeWatcher with scripted streams.
type fakeWatcher struct {
	mutex     sync.Mutex
	streams   map[string]*fakeStream
	setupErrs map[string]error
	watched   []string
	recursive []bool
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{streams: make(map[string]*fakeStream), setupErrs: make(map[string]error)}
}

func (w *fakeWatcher) stream(target string) *fakeStream {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	s, ok := w.streams[target]
	if !ok {
		s = newFakeStream()
		w.streams[target] = s
	}
	return s
}

func (w *fakeWatcher) Watch(ctx context.Context, target string, recursive bool) (secondary.ChangeStream, error) {
	w.mutex.Lock()
	w.watched = append(w.watched, target)
	w.recursive = append(w.recursive, recursive)
	err := w.setupErrs[target]
	w.mutex.Unlock()

	if err != nil {
		return nil, err
	}
	return w.stream(target), nil
}

func (w *fakeWatcher) Close() error { return nil }

func (w *fakeWatcher) watchedTargets() []string {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return append([]string(nil), w.watched...)
}

// fakeStream delivers whatever the test pushes.
type fakeStream struct {
	events chan secondary.ChangeEvent
	errs   chan error
	mutex  sync.Mutex
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan secondary.ChangeEvent, 8), errs: make(chan error, 1)}
}

func (s *fakeStream) emit(path string) {
	s.events <- secondary.ChangeEvent{ID: "evt-" + path, Target: path, Path: path, Coalesced: 1, At: time.Now()}
}

func (s *fakeStream) Next(ctx context.Context) (secondary.ChangeEvent, error) {
	select {
	case event := <-s.events:
		return event, nil
	case err := <-s.errs:
		return secondary.ChangeEvent{}, err
	case <-ctx.Done():
		return secondary.ChangeEvent{}, ctx.Err()
	}
}

func (s *fakeStream) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.closed
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
