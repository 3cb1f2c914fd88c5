// Package repository defines the catalog store used by the bot and its
// backends (MySQL, Postgres, MongoDB and an in-memory map).  A movie or
// category that does not exist is not an error for the read methods: they
// return nil/empty results and let higher layers render "not found".
package repository

import "errors"

// ErrUnknownDriver is returned by Open for an unsupported STORE_DRIVER.
var ErrUnknownDriver = errors.New("unknown store driver")

// ErrEmptyKey is returned when a movie code, category name or user id is
// empty.  Callers validate input first; this guards the stores themselves.
var ErrEmptyKey = errors.New("empty key")
