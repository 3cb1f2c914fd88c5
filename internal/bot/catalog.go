package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

func (r *Router) start(ctx context.Context, ev model.Event) {
	if !r.gated(ctx, ev) {
		return
	}
	r.reply(ctx, ev.ChatID, fmt.Sprintf("Welcome, %s!", nameOr(ev.SenderName, "friend")))
	r.mainMenu(ctx, ev.ChatID)
}

// lookup treats text as a code first and a title search second.  Empty
// queries never reach the catalog.
func (r *Router) lookup(ctx context.Context, chatID int64, text string) {
	q := strings.TrimSpace(text)
	if q == "" {
		r.reply(ctx, chatID, "Send a movie code or part of its title.")
		return
	}
	m, err := r.Catalog.GetByCode(ctx, q)
	if err != nil {
		r.internalError(ctx, chatID, err, "lookup by code")
		return
	}
	if m != nil {
		r.deliver(ctx, chatID, *m)
		return
	}
	found, err := r.Catalog.SearchByTitle(ctx, q)
	if err != nil {
		r.internalError(ctx, chatID, err, "search by title")
		return
	}
	if len(found) == 0 {
		r.reply(ctx, chatID, "Nothing found.")
		return
	}
	text = fmt.Sprintf("Found %d:", len(found))
	if len(found) > maxSearchResults {
		text = fmt.Sprintf("Found %d, showing the first %d:", len(found), maxSearchResults)
	}
	r.present(ctx, chatID, text, movieRows(found, maxSearchResults))
}

func (r *Router) sendMovie(ctx context.Context, chatID int64, code string) {
	m, err := r.Catalog.GetByCode(ctx, code)
	if err != nil {
		r.internalError(ctx, chatID, err, "get movie")
		return
	}
	if m == nil {
		r.reply(ctx, chatID, "Movie not found.")
		return
	}
	r.deliver(ctx, chatID, *m)
}

// deliver counts a view and sends the media.
func (r *Router) deliver(ctx context.Context, chatID int64, m model.Movie) {
	if err := r.Catalog.RecordView(ctx, m.Code); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("code", m.Code).Msg("record view")
	}
	caption := m.Title
	if m.Category != "" {
		caption += "\n" + m.Category
	}
	if err := r.Gateway.SendMedia(ctx, chatID, m.MediaRef, caption); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("code", m.Code).Msg("send media")
	}
}

func (r *Router) listAll(ctx context.Context, chatID int64) {
	all, err := r.Catalog.ListAll(ctx)
	if err != nil {
		r.internalError(ctx, chatID, err, "list movies")
		return
	}
	if len(all) == 0 {
		r.reply(ctx, chatID, "The catalog is empty.")
		return
	}
	r.present(ctx, chatID, "Movies:", movieRows(all, maxListed))
}

func (r *Router) listCategories(ctx context.Context, chatID int64) {
	cats, err := r.Catalog.Categories(ctx)
	if err != nil {
		r.internalError(ctx, chatID, err, "list categories")
		return
	}
	if len(cats) == 0 {
		r.reply(ctx, chatID, "No categories yet.")
		return
	}
	rows := make([]model.Row, 0, len(cats))
	for _, c := range cats {
		tok, ok := callbackToken(categoryPrefix, c)
		if !ok {
			zerolog.Ctx(ctx).Warn().Str("category", c).Msg("category name too long for a button")
			continue
		}
		rows = append(rows, model.Row{{Label: c, Token: tok}})
	}
	if len(rows) == 0 {
		r.reply(ctx, chatID, "No categories yet.")
		return
	}
	r.present(ctx, chatID, "Categories:", rows)
}

func (r *Router) listCategory(ctx context.Context, chatID int64, name string) {
	movies, err := r.Catalog.ListByCategory(ctx, name)
	if err != nil {
		r.internalError(ctx, chatID, err, "list category")
		return
	}
	if len(movies) == 0 {
		if known, err := r.Catalog.HasCategory(ctx, name); err == nil && !known {
			r.reply(ctx, chatID, fmt.Sprintf("Category %s no longer exists.", name))
			return
		}
		r.reply(ctx, chatID, fmt.Sprintf("No movies in %s.", name))
		return
	}
	r.present(ctx, chatID, name+":", movieRows(movies, maxListed))
}

func (r *Router) top(ctx context.Context, chatID int64) {
	movies, err := r.Catalog.TopByViews(ctx, topLimit)
	if err != nil {
		r.internalError(ctx, chatID, err, "top movies")
		return
	}
	if len(movies) == 0 {
		r.reply(ctx, chatID, "The catalog is empty.")
		return
	}
	rows := make([]model.Row, 0, len(movies))
	for _, m := range movies {
		tok, ok := callbackToken(moviePrefix, m.Code)
		if !ok {
			continue
		}
		label := fmt.Sprintf("%d. %s (%d views)", len(rows)+1, m.Title, m.Views)
		rows = append(rows, model.Row{{Label: label, Token: tok}})
	}
	r.present(ctx, chatID, "Most watched:", rows)
}

func (r *Router) info(ctx context.Context, chatID int64) {
	r.reply(ctx, chatID, "Send a movie code to get the movie, or search by title. "+
		"Browse the whole catalog from the menu.")
}

func nameOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
