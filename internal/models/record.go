package models

import "time"

// Record represents a row in the 'records' table together with its
// resolved keywords. PublishedAt is stored as ISO-8601 text; an empty
// string means the publication time is unknown.
type Record struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Content     string    `db:"content" json:"content"`
	PublishedAt string    `db:"published_at" json:"published_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	Keywords []Keyword `db:"-" json:"keywords"`
}

// NewRecord is a validated creation unit: the shape BatchPersister accepts.
// Keywords hold names only; identities are resolved at persistence time.
type NewRecord struct {
	Title       string
	Content     string
	Keywords    []string
	PublishedAt string
}
