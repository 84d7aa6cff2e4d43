package models

import "time"

// Task is a single user-owned to-do item. The id is assigned at
// insert time and never changes; updated_at is refreshed by the
// store on every mutation.
type Task struct {
	ID        string
	UserID    string
	Title     string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
