package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-catalog-bot/internal/conversation"
	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

var adminActions = map[string]conversation.Action{
	"admin_add_movie":       conversation.ActionAddMovie,
	"admin_delete_movie":    conversation.ActionDeleteMovie,
	"admin_add_category":    conversation.ActionAddCategory,
	"admin_delete_category": conversation.ActionDeleteCategory,
	"admin_broadcast":       conversation.ActionBroadcast,
	"admin_cancel":          conversation.ActionNone,
}

// requireAdmin replies with a refusal for non-admins.
func (r *Router) requireAdmin(ctx context.Context, ev model.Event) bool {
	if r.Admins.IsAdmin(ev.SenderID) {
		return true
	}
	zerolog.Ctx(ctx).Info().Msg("admin action refused")
	r.reply(ctx, ev.ChatID, "This action is for admins only.")
	return false
}

func (r *Router) adminMenu(ctx context.Context, ev model.Event) {
	if !r.requireAdmin(ctx, ev) {
		return
	}
	r.present(ctx, ev.ChatID, "Admin panel:", adminMenuRows)
}

func (r *Router) adminCallback(ctx context.Context, ev model.Event, data string) {
	if !r.requireAdmin(ctx, ev) {
		return
	}
	if data == "admin_stats" {
		r.stats(ctx, ev)
		return
	}
	action, ok := adminActions[data]
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("data", data).Msg("unknown admin callback")
		return
	}
	r.reply(ctx, ev.ChatID, r.Conversation.Begin(ev.SenderID, action))
}

func (r *Router) stats(ctx context.Context, ev model.Event) {
	st, err := r.Catalog.Stats(ctx)
	if err != nil {
		r.internalError(ctx, ev.ChatID, err, "stats")
		return
	}
	r.reply(ctx, ev.ChatID, fmt.Sprintf("Movies: %d\nUsers: %d", st.Movies, st.Users))
}
