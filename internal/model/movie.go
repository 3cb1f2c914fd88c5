package model

// Movie represents a catalog entry addressable by its code.  This struct
// corresponds to a row in the `movies` table (or a document in the
// `movies` collection).  The code is chosen by an administrator and is the
// primary key; adding a movie with an existing code replaces the row.
//
// Fields:
//  Code     – unique short identifier typed by users to fetch the clip.
//  MediaRef – opaque handle the messaging platform resolves to the video.
//  Title    – display string used for search and listings.
//  Category – free text label, may be empty.
//  Views    – number of times the clip was delivered, never reset by an update.
type Movie struct {
    Code     string `json:"code" bson:"code"`
    MediaRef string `json:"-" bson:"media_ref"`
    Title    string `json:"title" bson:"title"`
    Category string `json:"category" bson:"category"`
    Views    int64  `json:"views" bson:"views"`
}

// Category is a named shelf used for browsing.  Deleting a category does
// not touch movies that still carry its name.
type Category struct {
    Name string `json:"name" bson:"name"`
}

// Stats summarizes the catalog for the admin panel.
type Stats struct {
    Movies int64 `json:"movies"`
    Users  int64 `json:"users"`
}
