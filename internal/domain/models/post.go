// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a news/blog entry. Body is stored already sanitized.
type Post struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Slug        string             `bson:"slug" json:"slug"`
	Body        string             `bson:"body" json:"body"`
	Published   bool               `bson:"published" json:"published"`
	AuthorID    primitive.ObjectID `bson:"author_id" json:"author_id"`
	PublishedAt *time.Time         `bson:"published_at,omitempty" json:"published_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
