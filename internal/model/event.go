package model

// Event is a transport neutral inbound update.  Exactly one of Command,
// CallbackData, MediaRef or Text is normally set; the router inspects them
// in that order.
type Event struct {
    ChatID       int64
    SenderID     int64
    SenderName   string
    Command      string // command name without the leading slash, e.g. "start"
    CommandArgs  string
    CallbackID   string
    CallbackData string
    Text         string
    MediaRef     string // file id of a video sent to the bot
}

// IsCallback reports whether the event is a button press.
func (e Event) IsCallback() bool { return e.CallbackID != "" }

// Option is a single presented choice: a label shown to the user and the
// opaque token echoed back when it is selected.  A token starting with
// "http" is rendered as a link.
type Option struct {
    Label string
    Token string
}

// Row is a line of options.
type Row []Option
