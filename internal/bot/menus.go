package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/iliyamo/cinema-catalog-bot/internal/gateway"
	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// Callback tokens.
const (
	moviePrefix    = "movie_"
	categoryPrefix = "category_"

	// Telegram rejects a whole keyboard when one callback_data exceeds this.
	maxCallbackBytes = 64
)

// callbackToken joins prefix and value, reporting false when the result
// cannot be used as callback data.
func callbackToken(prefix, value string) (string, bool) {
	tok := prefix + value
	return tok, len(tok) <= maxCallbackBytes
}

// Display caps keep a single reply from flooding the chat.
const (
	maxSearchResults = 10
	maxListed        = 30
	topLimit         = 10
)

var mainMenuRows = []model.Row{
	{{Label: "🎬 Movies", Token: "movies"}, {Label: "📂 Categories", Token: "categories"}},
	{{Label: "🔥 Top", Token: "top"}, {Label: "🔍 Search", Token: "search"}},
	{{Label: "ℹ️ Info", Token: "info"}},
}

var adminMenuRows = []model.Row{
	{{Label: "➕ Add movie", Token: "admin_add_movie"}, {Label: "🗑 Delete movie", Token: "admin_delete_movie"}},
	{{Label: "➕ Add category", Token: "admin_add_category"}, {Label: "🗑 Delete category", Token: "admin_delete_category"}},
	{{Label: "📣 Broadcast", Token: "admin_broadcast"}, {Label: "📊 Stats", Token: "admin_stats"}},
	{{Label: "✖️ Cancel", Token: "admin_cancel"}},
}

func (r *Router) mainMenu(ctx context.Context, chatID int64) {
	r.present(ctx, chatID, "Send a movie code, or choose an option:", mainMenuRows)
}

func (r *Router) subscribePrompt(ctx context.Context, chatID int64) {
	var rows []model.Row
	for _, ch := range r.Gate.Channels() {
		if link := gateway.ChannelLink(ch); link != "" {
			rows = append(rows, model.Row{{Label: "Join " + ch, Token: link}})
		}
	}
	rows = append(rows, model.Row{{Label: "✅ I subscribed", Token: "check_sub"}})
	r.present(ctx, chatID, "Please subscribe to our channels to use the bot.", rows)
}

// movieRows renders at most limit movies as one option per row.  Movies
// whose code does not fit a callback token are left out; they remain
// reachable by typing the code.
func movieRows(movies []model.Movie, limit int) []model.Row {
	rows := make([]model.Row, 0, min(len(movies), limit))
	for _, m := range movies {
		if len(rows) == limit {
			break
		}
		tok, ok := callbackToken(moviePrefix, m.Code)
		if !ok {
			continue
		}
		rows = append(rows, model.Row{{Label: movieLabel(m), Token: tok}})
	}
	return rows
}

func movieLabel(m model.Movie) string {
	return fmt.Sprintf("%s [%s]", m.Title, m.Code)
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
