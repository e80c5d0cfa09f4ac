package worker

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/backend"
	"github.com/hackmate/hackathon-console/internal/model"
)

type fakeQueue struct {
	mu       sync.Mutex
	items    []model.BoardIntent
	requeued []model.BoardIntent
	events   []model.BoardEvent
}

func (q *fakeQueue) Pop(ctx context.Context, _ time.Duration) (*model.BoardIntent, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, ctx.Err()
	}
	in := q.items[0]
	q.items = q.items[1:]
	return &in, nil
}

func (q *fakeQueue) Requeue(_ context.Context, intent model.BoardIntent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requeued = append(q.requeued, intent)
	q.items = append([]model.BoardIntent{intent}, q.items...)
	return nil
}

func (q *fakeQueue) Publish(_ context.Context, event model.BoardEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, event)
	return nil
}

type call struct {
	method string
	args   []string
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []call
	errs  []error
}

func (b *fakeBackend) record(method string, args ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call{method, args})
	if len(b.errs) == 0 {
		return nil
	}
	err := b.errs[0]
	b.errs = b.errs[1:]
	return err
}

func (b *fakeBackend) MoveMember(_ context.Context, h string, in model.MoveIntent) error {
	return b.record("move", h, in.FromTeamID, in.ToTeamID, in.ParticipantID)
}

func (b *fakeBackend) RenameTeam(_ context.Context, h, team, name string) error {
	return b.record("rename", h, team, name)
}

func (b *fakeBackend) DeleteTeam(_ context.Context, h, team string) error {
	return b.record("delete", h, team)
}

func (b *fakeBackend) RemoveMember(_ context.Context, h, team, p string) error {
	return b.record("remove", h, team, p)
}

type fakeActivity struct {
	recorded []model.BoardIntent
	err      error
}

func (a *fakeActivity) Record(_ context.Context, intent model.BoardIntent) error {
	a.recorded = append(a.recorded, intent)
	return a.err
}

func intent(t model.IntentType) model.BoardIntent {
	return model.BoardIntent{
		ID:            uuid.New(),
		Type:          t,
		HackathonID:   "h1",
		TeamID:        "A",
		ToTeamID:      "B",
		ParticipantID: "x",
		Name:          "Gamma",
	}
}

func newWorker(q *fakeQueue, b *fakeBackend, a *fakeActivity, opts ...Option) *BoardIntentWorker {
	opts = append([]Option{WithRetryDelay(0)}, opts...)
	return NewBoardIntentWorker(q, b, a, zerolog.Nop(), opts...)
}

func TestDeliversEachIntentType(t *testing.T) {
	tests := []struct {
		typ  model.IntentType
		want call
	}{
		{model.IntentMoveMember, call{"move", []string{"h1", "A", "B", "x"}}},
		{model.IntentRenameTeam, call{"rename", []string{"h1", "A", "Gamma"}}},
		{model.IntentDeleteTeam, call{"delete", []string{"h1", "A"}}},
		{model.IntentRemoveMember, call{"remove", []string{"h1", "A", "x"}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			q := &fakeQueue{items: []model.BoardIntent{intent(tt.typ)}}
			b := &fakeBackend{}
			a := &fakeActivity{}
			w := newWorker(q, b, a)

			w.processNext(context.Background())

			if len(b.calls) != 1 || b.calls[0].method != tt.want.method {
				t.Fatalf("calls = %+v", b.calls)
			}
			for i, arg := range tt.want.args {
				if b.calls[0].args[i] != arg {
					t.Fatalf("args = %v, want %v", b.calls[0].args, tt.want.args)
				}
			}
			if len(a.recorded) != 1 || a.recorded[0].Attempts != 1 {
				t.Fatalf("recorded = %+v", a.recorded)
			}
			if len(q.events) != 1 || q.events[0].Type != model.BoardEventReconcile || q.events[0].Error != "" {
				t.Fatalf("events = %+v", q.events)
			}
		})
	}
}

func TestTransientFailureRequeues(t *testing.T) {
	q := &fakeQueue{items: []model.BoardIntent{intent(model.IntentMoveMember)}}
	b := &fakeBackend{errs: []error{&backend.APIError{Status: http.StatusBadGateway}}}
	a := &fakeActivity{}
	w := newWorker(q, b, a)

	w.processNext(context.Background())

	if len(q.requeued) != 1 || q.requeued[0].Attempts != 1 {
		t.Fatalf("requeued = %+v", q.requeued)
	}
	if len(a.recorded) != 0 {
		t.Fatal("failed delivery recorded as activity")
	}
	if len(q.events) != 1 || q.events[0].Type != model.BoardEventRetrying {
		t.Fatalf("events = %+v", q.events)
	}

	w.processNext(context.Background())
	if len(a.recorded) != 1 || a.recorded[0].Attempts != 2 {
		t.Fatalf("retry recorded = %+v", a.recorded)
	}
}

func TestPermanentFailureIsDropped(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not found", &backend.APIError{Status: http.StatusNotFound}},
		{"conflict", &backend.APIError{Status: http.StatusConflict}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{items: []model.BoardIntent{intent(model.IntentDeleteTeam)}}
			w := newWorker(q, &fakeBackend{errs: []error{tt.err}}, &fakeActivity{})

			w.processNext(context.Background())

			if len(q.requeued) != 0 {
				t.Fatalf("requeued = %+v", q.requeued)
			}
			if len(q.events) != 1 || q.events[0].Type != model.BoardEventReconcile || q.events[0].Error == "" {
				t.Fatalf("events = %+v", q.events)
			}
		})
	}
}

func TestRetryableClientErrors(t *testing.T) {
	for _, status := range []int{http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError} {
		if permanent(&backend.APIError{Status: status}) {
			t.Errorf("status %d treated as permanent", status)
		}
	}
	if permanent(errors.New("connection refused")) {
		t.Error("transport error treated as permanent")
	}
}

func TestUnknownIntentIsDropped(t *testing.T) {
	q := &fakeQueue{items: []model.BoardIntent{intent("promote_member")}}
	b := &fakeBackend{}
	w := newWorker(q, b, &fakeActivity{})

	w.processNext(context.Background())

	if len(b.calls) != 0 || len(q.requeued) != 0 {
		t.Fatalf("calls = %+v, requeued = %+v", b.calls, q.requeued)
	}
}

func TestMaxAttemptsDropsIntent(t *testing.T) {
	q := &fakeQueue{items: []model.BoardIntent{intent(model.IntentRenameTeam)}}
	down := errors.New("connection refused")
	b := &fakeBackend{errs: []error{down, down, down}}
	w := newWorker(q, b, &fakeActivity{}, WithMaxAttempts(2))

	w.processNext(context.Background())
	w.processNext(context.Background())
	w.processNext(context.Background())

	if len(b.calls) != 2 {
		t.Fatalf("delivery attempts = %d, want 2", len(b.calls))
	}
	if len(q.items) != 0 {
		t.Fatalf("queue = %+v", q.items)
	}
}

func TestActivityFailureStillReconciles(t *testing.T) {
	q := &fakeQueue{items: []model.BoardIntent{intent(model.IntentMoveMember)}}
	w := newWorker(q, &fakeBackend{}, &fakeActivity{err: errors.New("pg down")})

	w.processNext(context.Background())

	if len(q.requeued) != 0 {
		t.Fatal("delivered intent requeued after activity failure")
	}
	if len(q.events) != 1 || q.events[0].Type != model.BoardEventReconcile {
		t.Fatalf("events = %+v", q.events)
	}
}

func TestStartDrainsOnShutdown(t *testing.T) {
	q := &fakeQueue{}
	b := &fakeBackend{}
	a := &fakeActivity{}
	w := newWorker(q, b, a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.items = []model.BoardIntent{intent(model.IntentMoveMember), intent(model.IntentRenameTeam)}

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	if len(a.recorded) != 2 {
		t.Fatalf("drained %d intents, want 2", len(a.recorded))
	}
}

func TestRetryKeepsDeliveryOrder(t *testing.T) {
	first := intent(model.IntentMoveMember)
	second := intent(model.IntentMoveMember)
	second.TeamID, second.ToTeamID = "B", "C"

	q := &fakeQueue{items: []model.BoardIntent{first, second}}
	b := &fakeBackend{errs: []error{&backend.APIError{Status: http.StatusServiceUnavailable}}}
	w := newWorker(q, b, &fakeActivity{})

	for i := 0; i < 3; i++ {
		w.processNext(context.Background())
	}

	want := [][]string{{"h1", "A", "B", "x"}, {"h1", "A", "B", "x"}, {"h1", "B", "C", "x"}}
	if len(b.calls) != len(want) {
		t.Fatalf("calls = %+v", b.calls)
	}
	for i, c := range b.calls {
		if strings.Join(c.args, ",") != strings.Join(want[i], ",") {
			t.Fatalf("call %d = %v, want %v", i, c.args, want[i])
		}
	}
}
