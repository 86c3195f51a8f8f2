// Package blog serves posts, categories, likes and moderated comments.
package blog

import (
	"time"

	"campus/internal/apperr"
)

var (
	ErrPostNotFound     = apperr.New(apperr.KindNotFound, "POST_NOT_FOUND", "post not found")
	ErrCategoryNotFound = apperr.New(apperr.KindNotFound, "CATEGORY_NOT_FOUND", "category not found")
	ErrCommentNotFound  = apperr.New(apperr.KindNotFound, "COMMENT_NOT_FOUND", "comment not found")
	ErrParentNotFound   = apperr.New(apperr.KindNotFound, "PARENT_NOT_FOUND", "parent comment not found")
	ErrParentMismatch   = apperr.New(apperr.KindValidation, "PARENT_MISMATCH", "parent comment belongs to another post")
	ErrSlugTaken        = apperr.New(apperr.KindConflict, "SLUG_TAKEN", "slug already in use")
)

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Excerpt      string    `json:"excerpt"`
	Content      string    `json:"content"`
	CoverImage   string    `json:"coverImage"`
	CategoryID   string    `json:"categoryId,omitempty"`
	CategoryName string    `json:"categoryName,omitempty"`
	AuthorID     string    `json:"authorId,omitempty"`
	Published    bool      `json:"published"`
	Likes        int       `json:"likes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity keys a like: a signed-in user, otherwise the client IP. Exactly one is set.
type Identity struct {
	UserID string
	IP     string
}

func (i Identity) column() (string, string) {
	if i.UserID != "" {
		return "user_id", i.UserID
	}
	return "ip_address", i.IP
}

// LikeState is the caller's view of a post's likes.
type LikeState struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// Comment is the stored comment with its resolved author.
type Comment struct {
	ID             string    `json:"id"`
	PostID         string    `json:"postId"`
	PostTitle      string    `json:"postTitle,omitempty"`
	AuthorID       string    `json:"authorId,omitempty"`
	AuthorName     string    `json:"authorName"`
	AuthorEmail    string    `json:"authorEmail,omitempty"`
	AnonymousName  string    `json:"anonymousName,omitempty"`
	AnonymousEmail string    `json:"anonymousEmail,omitempty"`
	Content        string    `json:"content"`
	ParentID       string    `json:"parentId,omitempty"`
	Approved       bool      `json:"approved"`
	CreatedAt      time.Time `json:"createdAt"`
}

// displayName and contactEmail resolve the registered author first.
func (c Comment) displayName() string {
	if c.AuthorID != "" && c.AuthorName != "" {
		return c.AuthorName
	}
	return c.AnonymousName
}

func (c Comment) contactEmail() string {
	if c.AuthorID != "" && c.AuthorEmail != "" {
		return c.AuthorEmail
	}
	return c.AnonymousEmail
}

// Thread is a public comment with its visible replies.
type Thread struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	ParentID   string    `json:"parentId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Replies    []*Thread `json:"replies"`
}
