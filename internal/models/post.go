package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is embedded in a Post and shares its lifetime.
type Comment struct {
	ID        primitive.ObjectID `json:"id"        bson:"_id"`
	User      string             `json:"user"      bson:"user"`
	Text      string             `json:"text"      bson:"text"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// Post is a single post document stored in MongoDB. Author, Likes and
// Comment.User hold user ids.
type Post struct {
	ID        primitive.ObjectID `json:"id"        bson:"_id,omitempty"`
	Content   string             `json:"content"   bson:"content"`
	Author    string             `json:"author"    bson:"author"`
	Likes     []string           `json:"likes"     bson:"likes"`
	Comments  []Comment          `json:"comments"  bson:"comments"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// AuthorRef is a resolved post author.
type AuthorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// UserRef is a resolved comment author.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CommentView is a comment with its user resolved. User is nil when the
// referenced account no longer exists.
type CommentView struct {
	ID        primitive.ObjectID `json:"id"`
	Text      string             `json:"text"`
	User      *UserRef           `json:"user"`
	CreatedAt time.Time          `json:"createdAt"`
}

// PostView is a post with author and comment users resolved.
type PostView struct {
	ID        primitive.ObjectID `json:"id"`
	Content   string             `json:"content"`
	Author    *AuthorRef         `json:"author"`
	Likes     []string           `json:"likes"`
	Comments  []CommentView      `json:"comments"`
	CreatedAt time.Time          `json:"createdAt"`
}

// CreatePostRequest is the JSON body for POST /api/posts.
type CreatePostRequest struct {
	Content string `json:"content" validate:"required"`
}

// AddCommentRequest is the JSON body for POST /api/posts/{id}/comments.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required"`
}
