package reconcile

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Op is a create or delete that has been sent and not yet answered
type Op struct {
	ID      string
	Key     string
	Kind    string
	Started time.Time
}

// opTracker holds the pending state of every entity. An entity with an
// operation in flight refuses a second one instead of queueing it.
type opTracker struct {
	mu  sync.Mutex
	ops map[string]Op
	now func() time.Time
}

func newOpTracker(now func() time.Time) *opTracker {
	return &opTracker{ops: make(map[string]Op), now: now}
}

func (t *opTracker) begin(key, kind string) (Op, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, busy := t.ops[key]; busy {
		return Op{}, ErrInFlight
	}
	op := Op{ID: uuid.NewString(), Key: key, Kind: kind, Started: t.now()}
	t.ops[key] = op
	return op, nil
}

func (t *opTracker) end(op Op) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.ops[op.Key]; ok && cur.ID == op.ID {
		delete(t.ops, op.Key)
	}
}

func (t *opTracker) pending() []Op {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Op, 0, len(t.ops))
	for _, op := range t.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	return out
}

func projectOpKey(id string) string        { return "project:" + id }
func taskOpKey(id string) string           { return "task:" + id }
func newProjectOpKey(name string) string   { return "project-name:" + name }
func newTaskOpKey(pid, name string) string { return "task-name:" + pid + "/" + name }
