// Package conversation turns an admin's free text into multi-step catalog
// and broadcast operations.  Each admin has at most one pending action;
// the next text message consumes it whether or not it succeeds.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-catalog-bot/internal/broadcast"
	"github.com/iliyamo/cinema-catalog-bot/internal/catalog"
	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// Catalog is what the machine mutates.
type Catalog interface {
	GetByCode(ctx context.Context, code string) (*model.Movie, error)
	Upsert(ctx context.Context, code, mediaRef, title, category string) (model.Movie, error)
	Remove(ctx context.Context, code string) error
	AddCategory(ctx context.Context, name string) error
	RemoveCategory(ctx context.Context, name string) error
}

// Broadcaster fans a text out to every registered user.
type Broadcaster interface {
	Broadcast(ctx context.Context, text string) (broadcast.Result, error)
}

// Auditor records successful admin mutations.  Implementations must not
// block for long; failures are theirs to log.
type Auditor interface {
	Record(ctx context.Context, action string, actorID int64, subject string)
}

// Reply is the text to send back to the admin.
type Reply struct {
	Text string
	Err  error // set when the operation failed; Text is still user facing
}

var prompts = map[Action]string{
	ActionAddMovie:       "Send the movie as: code;media;title;category\nUpload a video first to get its media id.",
	ActionDeleteMovie:    "Send the code of the movie to delete.",
	ActionAddCategory:    "Send the name of the new category.",
	ActionDeleteCategory: "Send the name of the category to delete.",
	ActionBroadcast:      "Send the message to broadcast to all users.",
}

// Machine owns the admin sessions.
type Machine struct {
	sessions    *Sessions
	catalog     Catalog
	broadcaster Broadcaster
	auditor     Auditor
	log         zerolog.Logger
	now         func() time.Time
}

// NewMachine wires the machine.  auditor may be nil.
func NewMachine(sessions *Sessions, cat Catalog, b Broadcaster, auditor Auditor, log zerolog.Logger) *Machine {
	if sessions == nil {
		sessions = NewSessions()
	}
	return &Machine{
		sessions:    sessions,
		catalog:     cat,
		broadcaster: b,
		auditor:     auditor,
		log:         log,
		now:         time.Now,
	}
}

// Begin sets userID's pending action, overwriting any stale one, and
// returns the instruction prompt.
func (m *Machine) Begin(userID int64, a Action) string {
	if a == ActionNone {
		m.sessions.Clear(userID)
		return "Cancelled."
	}
	m.sessions.Set(userID, PendingAction{Kind: a, Since: m.now()})
	return prompts[a]
}

// Pending returns userID's pending action.
func (m *Machine) Pending(userID int64) PendingAction { return m.sessions.Get(userID) }

// Cancel drops userID's pending action and reports whether there was one.
func (m *Machine) Cancel(userID int64) bool {
	return !m.sessions.Take(userID).Idle()
}

// Handle consumes userID's pending action with text.  It returns false
// when nothing was pending.  The action is cleared before it runs, so a
// failed attempt must be restarted from the menu.
func (m *Machine) Handle(ctx context.Context, userID int64, text string) (Reply, bool) {
	p := m.sessions.Take(userID)
	if p.Idle() {
		return Reply{}, false
	}
	text = strings.TrimSpace(text)
	log := m.log.With().Int64("user_id", userID).Str("action", p.Kind.String()).Logger()

	var r Reply
	switch p.Kind {
	case ActionAddMovie:
		r = m.addMovie(ctx, userID, text)
	case ActionDeleteMovie:
		r = m.deleteMovie(ctx, userID, text)
	case ActionAddCategory:
		r = m.addCategory(ctx, userID, text)
	case ActionDeleteCategory:
		r = m.deleteCategory(ctx, userID, text)
	case ActionBroadcast:
		r = m.broadcast(ctx, userID, text)
	default:
		r = Reply{Text: "Nothing to do."}
	}
	if r.Err != nil {
		log.Warn().Err(r.Err).Msg("admin action failed")
	} else {
		log.Info().Msg("admin action done")
	}
	return r, true
}

func (m *Machine) addMovie(ctx context.Context, userID int64, text string) Reply {
	spec, err := ParseMovieSpec(text)
	if err != nil {
		return Reply{Text: "Wrong format. Use: code;media;title;category", Err: err}
	}
	mv, err := m.catalog.Upsert(ctx, spec.Code, spec.MediaRef, spec.Title, spec.Category)
	if errors.Is(err, catalog.ErrTooLong) {
		return Reply{Text: fmt.Sprintf("Code must fit in %d bytes and category in %d bytes. Use: code;media;title;category",
			catalog.MaxCodeBytes, catalog.MaxCategoryBytes), Err: err}
	}
	if errors.Is(err, catalog.ErrInvalidMovie) {
		return Reply{Text: "Wrong format. Use: code;media;title;category", Err: err}
	}
	if err != nil {
		return Reply{Text: "Could not save the movie, try again later.", Err: err}
	}
	m.audit(ctx, "movie.upserted", userID, mv.Code)
	return Reply{Text: fmt.Sprintf("Saved %q under code %s.", mv.Title, mv.Code)}
}

func (m *Machine) deleteMovie(ctx context.Context, userID int64, code string) Reply {
	if code == "" {
		return Reply{Text: "Movie code is empty.", Err: catalog.ErrInvalidMovie}
	}
	existing, err := m.catalog.GetByCode(ctx, code)
	if err != nil {
		return Reply{Text: "Could not delete the movie, try again later.", Err: err}
	}
	if existing == nil {
		return Reply{Text: fmt.Sprintf("No movie with code %s.", code)}
	}
	if err := m.catalog.Remove(ctx, code); err != nil {
		return Reply{Text: "Could not delete the movie, try again later.", Err: err}
	}
	m.audit(ctx, "movie.deleted", userID, code)
	return Reply{Text: fmt.Sprintf("Deleted movie %s.", code)}
}

func (m *Machine) addCategory(ctx context.Context, userID int64, name string) Reply {
	if err := m.catalog.AddCategory(ctx, name); err != nil {
		if errors.Is(err, catalog.ErrTooLong) {
			return Reply{Text: fmt.Sprintf("Category name must fit in %d bytes.", catalog.MaxCategoryBytes), Err: err}
		}
		if errors.Is(err, catalog.ErrInvalidCategory) {
			return Reply{Text: "Category name is empty.", Err: err}
		}
		return Reply{Text: "Could not add the category, try again later.", Err: err}
	}
	m.audit(ctx, "category.added", userID, name)
	return Reply{Text: fmt.Sprintf("Category %q added.", name)}
}

func (m *Machine) deleteCategory(ctx context.Context, userID int64, name string) Reply {
	if err := m.catalog.RemoveCategory(ctx, name); err != nil {
		if errors.Is(err, catalog.ErrInvalidCategory) {
			return Reply{Text: "Category name is empty.", Err: err}
		}
		return Reply{Text: "Could not delete the category, try again later.", Err: err}
	}
	m.audit(ctx, "category.deleted", userID, name)
	return Reply{Text: fmt.Sprintf("Category %q deleted.", name)}
}

func (m *Machine) broadcast(ctx context.Context, userID int64, text string) Reply {
	if text == "" {
		return Reply{Text: "Broadcast text is empty.", Err: errors.New("empty broadcast")}
	}
	if m.broadcaster == nil {
		return Reply{Text: "Broadcast is not available.", Err: errors.New("no broadcaster")}
	}
	res, err := m.broadcaster.Broadcast(ctx, text)
	if err != nil {
		return Reply{Text: "Could not read the user list.", Err: err}
	}
	m.audit(ctx, "broadcast.sent", userID, fmt.Sprintf("%d/%d", res.Delivered, res.Total))
	return Reply{Text: fmt.Sprintf("Broadcast delivered to %d of %d users.", res.Delivered, res.Total)}
}

func (m *Machine) audit(ctx context.Context, action string, actorID int64, subject string) {
	if m.auditor != nil {
		m.auditor.Record(ctx, action, actorID, subject)
	}
}
