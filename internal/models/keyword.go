package models

// Keyword represents a row in the 'keywords' table. Names are unique
// (case-sensitive) and a keyword may be attached to many records.
type Keyword struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
