// Package bot maps inbound chat events to the catalog, the subscription
// gate, the admin conversation and the broadcast dispatcher.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-catalog-bot/internal/conversation"
	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// Gateway is the outbound side of the messaging platform.
type Gateway interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendMedia(ctx context.Context, chatID int64, mediaRef, caption string) error
	PresentOptions(ctx context.Context, chatID int64, text string, rows []model.Row) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Catalog is the read side of the catalog engine plus view counting.
type Catalog interface {
	GetByCode(ctx context.Context, code string) (*model.Movie, error)
	SearchByTitle(ctx context.Context, substring string) ([]model.Movie, error)
	ListByCategory(ctx context.Context, category string) ([]model.Movie, error)
	ListAll(ctx context.Context) ([]model.Movie, error)
	TopByViews(ctx context.Context, limit int) ([]model.Movie, error)
	RecordView(ctx context.Context, code string) error
	Categories(ctx context.Context) ([]string, error)
	HasCategory(ctx context.Context, name string) (bool, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// Gate is the subscription check.
type Gate interface {
	IsAuthorized(ctx context.Context, userID int64) bool
	Channels() []string
}

// Admins is the static allow-list.
type Admins interface {
	IsAdmin(userID int64) bool
}

// Conversation is the admin state machine.
type Conversation interface {
	Begin(userID int64, a conversation.Action) string
	Handle(ctx context.Context, userID int64, text string) (conversation.Reply, bool)
	Pending(userID int64) conversation.PendingAction
	Cancel(userID int64) bool
}

// UserRegistry records everyone who talks to the bot.
type UserRegistry interface {
	UpsertUser(ctx context.Context, u model.User) error
}

// Limiter throttles a single user.  A nil Limiter disables throttling.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Router dispatches one event at a time.  It is safe for concurrent use
// as long as its collaborators are.
type Router struct {
	Gateway      Gateway
	Catalog      Catalog
	Gate         Gate
	Admins       Admins
	Conversation Conversation
	Users        UserRegistry
	Limiter      Limiter
	Log          zerolog.Logger

	Now func() time.Time
}

// Handle processes ev.  Errors are logged, never returned: there is
// nobody upstream to report them to.
func (r *Router) Handle(ctx context.Context, ev model.Event) {
	log := r.Log.With().Int64("user_id", ev.SenderID).Logger()
	ctx = log.WithContext(ctx)

	r.register(ctx, ev)
	if !r.allow(ctx, ev) {
		if ev.IsCallback() {
			r.answer(ctx, ev, "Too many requests, slow down.")
		}
		return
	}

	switch {
	case ev.Command != "":
		r.handleCommand(ctx, ev)
	case ev.IsCallback():
		r.handleCallback(ctx, ev)
	case ev.MediaRef != "":
		r.handleMedia(ctx, ev)
	default:
		r.handleText(ctx, ev)
	}
}

func (r *Router) handleCommand(ctx context.Context, ev model.Event) {
	switch ev.Command {
	case "start":
		r.start(ctx, ev)
	case "admin":
		r.adminMenu(ctx, ev)
	case "stats":
		if r.requireAdmin(ctx, ev) {
			r.stats(ctx, ev)
		}
	case "cancel":
		if r.requireAdmin(ctx, ev) {
			if r.Conversation.Cancel(ev.SenderID) {
				r.reply(ctx, ev.ChatID, "Cancelled.")
			} else {
				r.reply(ctx, ev.ChatID, "Nothing to cancel.")
			}
		}
	default:
		r.reply(ctx, ev.ChatID, "Unknown command. Use /start.")
	}
}

func (r *Router) handleCallback(ctx context.Context, ev model.Event) {
	data := ev.CallbackData
	if strings.HasPrefix(data, "admin_") {
		r.answer(ctx, ev, "")
		r.adminCallback(ctx, ev, data)
		return
	}
	if data == "check_sub" {
		if r.Gate.IsAuthorized(ctx, ev.SenderID) {
			r.answer(ctx, ev, "Thanks for subscribing!")
			r.mainMenu(ctx, ev.ChatID)
		} else {
			r.answer(ctx, ev, "You are not subscribed yet.")
			r.subscribePrompt(ctx, ev.ChatID)
		}
		return
	}

	r.answer(ctx, ev, "")
	if !r.gated(ctx, ev) {
		return
	}
	switch {
	case data == "movies":
		r.listAll(ctx, ev.ChatID)
	case data == "categories":
		r.listCategories(ctx, ev.ChatID)
	case data == "top":
		r.top(ctx, ev.ChatID)
	case data == "search":
		r.reply(ctx, ev.ChatID, "Send a movie code or part of its title.")
	case data == "info":
		r.info(ctx, ev.ChatID)
	case strings.HasPrefix(data, categoryPrefix):
		r.listCategory(ctx, ev.ChatID, strings.TrimPrefix(data, categoryPrefix))
	case strings.HasPrefix(data, moviePrefix):
		r.sendMovie(ctx, ev.ChatID, strings.TrimPrefix(data, moviePrefix))
	default:
		zerolog.Ctx(ctx).Debug().Str("data", data).Msg("unknown callback")
	}
}

func (r *Router) handleMedia(ctx context.Context, ev model.Event) {
	if !r.Admins.IsAdmin(ev.SenderID) {
		r.reply(ctx, ev.ChatID, "Send a movie code or part of its title.")
		return
	}
	r.reply(ctx, ev.ChatID, "Media id:\n"+ev.MediaRef+"\n\nUse it as: code;media;title;category")
}

func (r *Router) handleText(ctx context.Context, ev model.Event) {
	if r.Admins.IsAdmin(ev.SenderID) {
		if reply, ok := r.Conversation.Handle(ctx, ev.SenderID, ev.Text); ok {
			r.reply(ctx, ev.ChatID, reply.Text)
			return
		}
	}
	if !r.gated(ctx, ev) {
		return
	}
	r.lookup(ctx, ev.ChatID, ev.Text)
}

// register upserts the sender into the user registry.
func (r *Router) register(ctx context.Context, ev model.Event) {
	if r.Users == nil || ev.SenderID == 0 {
		return
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	u := model.User{ID: ev.SenderID, DisplayName: ev.SenderName, LastSeenAt: now().UTC()}
	if err := r.Users.UpsertUser(ctx, u); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("register user")
	}
}

// allow applies the per-user throttle.  Limiter errors let the event
// through.
func (r *Router) allow(ctx context.Context, ev model.Event) bool {
	if r.Limiter == nil || r.Admins.IsAdmin(ev.SenderID) {
		return true
	}
	ok, err := r.Limiter.Allow(ctx, "bot:"+formatID(ev.SenderID))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		zerolog.Ctx(ctx).Debug().Msg("throttled")
	}
	return ok
}

// gated runs the subscription gate and shows the subscribe prompt on
// failure.
func (r *Router) gated(ctx context.Context, ev model.Event) bool {
	if r.Gate.IsAuthorized(ctx, ev.SenderID) {
		return true
	}
	r.subscribePrompt(ctx, ev.ChatID)
	return false
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if err := r.Gateway.SendText(ctx, chatID, text); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("send reply")
	}
}

// present sends text with options; with no options left it is a plain reply.
func (r *Router) present(ctx context.Context, chatID int64, text string, rows []model.Row) {
	if len(rows) == 0 {
		r.reply(ctx, chatID, text)
		return
	}
	if err := r.Gateway.PresentOptions(ctx, chatID, text, rows); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("send options")
	}
}

func (r *Router) answer(ctx context.Context, ev model.Event, text string) {
	if !ev.IsCallback() {
		return
	}
	if err := r.Gateway.AnswerCallback(ctx, ev.CallbackID, text); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("answer callback")
	}
}

func (r *Router) internalError(ctx context.Context, chatID int64, err error, msg string) {
	zerolog.Ctx(ctx).Error().Err(err).Msg(msg)
	r.reply(ctx, chatID, "Something went wrong, please try again later.")
}
