package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-catalog-bot/internal/broadcast"
	"github.com/iliyamo/cinema-catalog-bot/internal/catalog"
	"github.com/iliyamo/cinema-catalog-bot/internal/repository"
)

const admin = int64(100)

type fakeBroadcaster struct {
	texts []string
	res   broadcast.Result
	err   error
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, text string) (broadcast.Result, error) {
	f.texts = append(f.texts, text)
	return f.res, f.err
}

type auditEntry struct {
	action  string
	actor   int64
	subject string
}

type fakeAuditor struct{ entries []auditEntry }

func (f *fakeAuditor) Record(_ context.Context, action string, actorID int64, subject string) {
	f.entries = append(f.entries, auditEntry{action, actorID, subject})
}

func newMachine(t *testing.T) (*Machine, *catalog.Engine, *fakeBroadcaster, *fakeAuditor) {
	t.Helper()
	eng := catalog.NewEngine(repository.NewMemoryStore())
	b := &fakeBroadcaster{}
	a := &fakeAuditor{}
	return NewMachine(NewSessions(), eng, b, a, zerolog.Nop()), eng, b, a
}

func TestHandle_NothingPending(t *testing.T) {
	m, _, _, _ := newMachine(t)
	if _, ok := m.Handle(context.Background(), admin, "hello"); ok {
		t.Fatalf("idle user should not be handled")
	}
}

func TestAddMovie_Success(t *testing.T) {
	ctx := context.Background()
	m, eng, _, a := newMachine(t)
	if p := m.Begin(admin, ActionAddMovie); p == "" {
		t.Fatalf("expected a prompt")
	}
	r, ok := m.Handle(ctx, admin, "7;ref123;Inception;Sci-Fi")
	if !ok || r.Err != nil {
		t.Fatalf("handle failed: %+v", r)
	}
	mv, _ := eng.GetByCode(ctx, "7")
	if mv == nil || mv.MediaRef != "ref123" || mv.Title != "Inception" || mv.Category != "Sci-Fi" || mv.Views != 0 {
		t.Fatalf("unexpected row %+v", mv)
	}
	if !m.Pending(admin).Idle() {
		t.Fatalf("pending action must reset")
	}
	if len(a.entries) != 1 || a.entries[0].action != "movie.upserted" || a.entries[0].subject != "7" {
		t.Fatalf("audit not recorded: %+v", a.entries)
	}
}

func TestAddMovie_MalformedClearsState(t *testing.T) {
	ctx := context.Background()
	m, eng, _, a := newMachine(t)
	m.Begin(admin, ActionAddMovie)
	r, ok := m.Handle(ctx, admin, "7;ref123")
	if !ok {
		t.Fatalf("expected handled")
	}
	if !errors.Is(r.Err, ErrMalformedSpec) || r.Text == "" {
		t.Fatalf("expected format hint, got %+v", r)
	}
	if mv, _ := eng.GetByCode(ctx, "7"); mv != nil {
		t.Fatalf("catalog must be unchanged")
	}
	if !m.Pending(admin).Idle() {
		t.Fatalf("malformed input must still reset state")
	}
	if len(a.entries) != 0 {
		t.Fatalf("failed action must not be audited")
	}
	// The next message is ordinary text again.
	if _, ok := m.Handle(ctx, admin, "7;ref;T"); ok {
		t.Fatalf("no retry loop expected")
	}
}

func TestBegin_LastWriteWins(t *testing.T) {
	m, _, _, _ := newMachine(t)
	m.Begin(admin, ActionAddMovie)
	m.Begin(admin, ActionDeleteCategory)
	if got := m.Pending(admin).Kind; got != ActionDeleteCategory {
		t.Fatalf("want delete_category, got %s", got)
	}
}

func TestDeleteMovie(t *testing.T) {
	ctx := context.Background()
	m, eng, _, _ := newMachine(t)
	_, _ = eng.Upsert(ctx, "9", "r", "T", "")

	m.Begin(admin, ActionDeleteMovie)
	if r, _ := m.Handle(ctx, admin, "9"); r.Err != nil {
		t.Fatalf("delete failed: %v", r.Err)
	}
	if mv, _ := eng.GetByCode(ctx, "9"); mv != nil {
		t.Fatalf("movie still present")
	}

	m.Begin(admin, ActionDeleteMovie)
	r, _ := m.Handle(ctx, admin, "9")
	if r.Err != nil || r.Text == "" {
		t.Fatalf("missing code should be a plain not-found reply: %+v", r)
	}
}

func TestCategoryFlows(t *testing.T) {
	ctx := context.Background()
	m, eng, _, _ := newMachine(t)
	m.Begin(admin, ActionAddCategory)
	m.Handle(ctx, admin, "  Drama ")
	if ok, _ := eng.HasCategory(ctx, "Drama"); !ok {
		t.Fatalf("category not added")
	}
	m.Begin(admin, ActionDeleteCategory)
	m.Handle(ctx, admin, "Drama")
	if ok, _ := eng.HasCategory(ctx, "Drama"); ok {
		t.Fatalf("category not deleted")
	}
	m.Begin(admin, ActionAddCategory)
	if r, _ := m.Handle(ctx, admin, "  "); !errors.Is(r.Err, catalog.ErrInvalidCategory) {
		t.Fatalf("empty name should fail, got %+v", r)
	}
}

func TestBroadcastFlow(t *testing.T) {
	ctx := context.Background()
	m, _, b, _ := newMachine(t)
	b.res = broadcast.Result{Total: 3, Delivered: 2, Failed: 1}
	m.Begin(admin, ActionBroadcast)
	r, _ := m.Handle(ctx, admin, "New movies tonight")
	if r.Err != nil || len(b.texts) != 1 || b.texts[0] != "New movies tonight" {
		t.Fatalf("broadcast not dispatched: %+v %v", r, b.texts)
	}

	m.Begin(admin, ActionBroadcast)
	if r, _ := m.Handle(ctx, admin, "   "); r.Err == nil {
		t.Fatalf("empty broadcast should be rejected")
	}
	if len(b.texts) != 1 {
		t.Fatalf("empty text must not be sent")
	}
}

func TestCancel(t *testing.T) {
	m, _, _, _ := newMachine(t)
	if m.Cancel(admin) {
		t.Fatalf("nothing to cancel")
	}
	m.Begin(admin, ActionBroadcast)
	if !m.Cancel(admin) || !m.Pending(admin).Idle() {
		t.Fatalf("cancel should clear the action")
	}
}

func TestAddMovie_OverlongCodeIsRejected(t *testing.T) {
	ctx := context.Background()
	m, eng, _, a := newMachine(t)
	code := strings.Repeat("9", 60)
	m.Begin(admin, ActionAddMovie)
	r, _ := m.Handle(ctx, admin, code+";ref;Title;Drama")
	if !errors.Is(r.Err, catalog.ErrTooLong) || !strings.Contains(r.Text, "code;media;title;category") {
		t.Fatalf("want a length hint, got %+v", r)
	}
	if mv, _ := eng.GetByCode(ctx, code); mv != nil {
		t.Fatalf("over-long code was stored")
	}
	if !m.Pending(admin).Idle() || len(a.entries) != 0 {
		t.Fatalf("rejected input must clear state without auditing")
	}
}

func TestAddCategory_OverlongNameIsRejected(t *testing.T) {
	ctx := context.Background()
	m, eng, _, _ := newMachine(t)
	name := strings.Repeat("ж", 30)
	m.Begin(admin, ActionAddCategory)
	if r, _ := m.Handle(ctx, admin, name); !errors.Is(r.Err, catalog.ErrTooLong) {
		t.Fatalf("want ErrTooLong, got %+v", r)
	}
	if ok, _ := eng.HasCategory(ctx, name); ok {
		t.Fatalf("over-long category was stored")
	}
}
