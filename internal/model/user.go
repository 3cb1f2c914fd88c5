package model

import "time"

// User is an entry of the bot's user registry.  A user is created on the
// first interaction and refreshed on every later one; the registry is the
// recipient list of a broadcast.
//
// Fields:
//  ID          – chat platform user id (primary key).
//  DisplayName – last known username or first name, may be empty.
//  LastSeenAt  – time of the most recent interaction (UTC).
type User struct {
    ID          int64     `json:"id" bson:"user_id"`
    DisplayName string    `json:"display_name" bson:"username"`
    LastSeenAt  time.Time `json:"last_seen_at" bson:"last_seen"`
}
