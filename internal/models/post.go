// Package models defines the post data transfer types shared by the client,
// the view controllers and the development API.
package models

import "time"

// Post is a stored post. ID is assigned by the server and never set by the client;
// zero means the server omitted it.
type Post struct {
	ID        int    `json:"id" gorm:"primaryKey"`
	Title     string `json:"title" gorm:"not null"`
	Content   string `json:"content" gorm:"not null"`
	Published bool   `json:"published" gorm:"default:true"`
	// CreatedAt is storage metadata; it never travels over the wire.
	CreatedAt time.Time `json:"-"`
}

// HasID reports whether the server supplied an identifier.
func (p Post) HasID() bool {
	return p.ID != 0
}

// CreatePostInput is the payload for creating a post.
type CreatePostInput struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// FormStatus is the user-facing outcome of the last form submission.
// The zero value is the idle status.
type FormStatus struct {
	Message string `json:"message"`
	IsError bool   `json:"isError"`
}

// IsZero reports whether there is nothing to show.
func (s FormStatus) IsZero() bool {
	return s.Message == ""
}
