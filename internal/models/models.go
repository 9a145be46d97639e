package models

import (
	"time"
)

type Status string

const (
	StatusDraft         Status = "draft"
	StatusPending       Status = "pending"
	StatusNeedsRevision Status = "needs-revision"
	StatusPublished     Status = "published"
	StatusRejected      Status = "rejected"
	StatusArchived      Status = "archived"
	StatusDeleted       Status = "deleted"
)

// Statuses lists every lifecycle state in display order.
var Statuses = []Status{
	StatusDraft,
	StatusPending,
	StatusNeedsRevision,
	StatusPublished,
	StatusRejected,
	StatusArchived,
	StatusDeleted,
}

func (s Status) Valid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

type Category string

const (
	CategoryWord   Category = "word"
	CategoryLens   Category = "lens"
	CategoryMotion Category = "motion"
)

func (c Category) Valid() bool {
	return c == CategoryWord || c == CategoryLens || c == CategoryMotion
}

type Role string

const (
	RoleAuthor Role = "author"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	return r == RoleAuthor || r == RoleEditor || r == RoleAdmin || r == RoleViewer
}

type User struct {
	UserID                 string    `json:"uid" db:"user_id"`
	Email                  string    `json:"email" db:"email"`
	DisplayName            string    `json:"displayName" db:"display_name"`
	PhotoURL               string    `json:"photoURL" db:"photo_url"`
	Bio                    string    `json:"bio" db:"bio"`
	Role                   Role      `json:"role" db:"role"`
	ArticlesCount          int       `json:"articlesCount" db:"articles_count"`
	PasswordHash           string    `json:"-" db:"password_hash"`
	RefreshToken           string    `json:"-" db:"refresh_token"`
	RefreshTokenExpiryTime time.Time `json:"-" db:"refresh_token_expiry_time"`
	CreatedAt              time.Time `json:"createdAt" db:"created_at"`
}

type Article struct {
	ID              string     `json:"id" db:"article_id"`
	Title           string     `json:"title" db:"title"`
	Excerpt         string     `json:"excerpt" db:"excerpt"`
	Content         string     `json:"content" db:"content"`
	Category        Category   `json:"category" db:"category"`
	FeaturedImage   string     `json:"featuredImage" db:"featured_image"`
	IsVisualStory   bool       `json:"isVisualStory" db:"is_visual_story"`
	AuthorID        string     `json:"authorId" db:"author_id"`
	AuthorName      string     `json:"authorName" db:"author_name"`
	Status          Status     `json:"status" db:"status"`
	PreviousStatus  Status     `json:"previousStatus,omitempty" db:"previous_status"`
	ArchivedFrom    Status     `json:"archivedFrom,omitempty" db:"archived_from"`
	HeldRevised     bool       `json:"-" db:"held_revised"`
	Views           int64      `json:"views" db:"views"`
	IsRevised       bool       `json:"isRevised" db:"is_revised"`
	RevisionNote    string     `json:"revisionNote" db:"revision_note"`
	RejectionReason string     `json:"rejectionReason" db:"rejection_reason"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
	PublishedAt     *time.Time `json:"publishedAt" db:"published_at"`
	ArchivedAt      *time.Time `json:"archivedAt" db:"archived_at"`
	DeletedAt       *time.Time `json:"deletedAt" db:"deleted_at"`
}

type ImageKind string

const (
	ImageKindFeatured ImageKind = "featured"
	ImageKindAvatar   ImageKind = "avatar"
	ImageKindBlock    ImageKind = "block"
)

type Image struct {
	ImageID    string    `json:"imageId" db:"image_id"`
	OwnerID    string    `json:"ownerId" db:"owner_id"`
	ArticleID  *string   `json:"articleId,omitempty" db:"article_id"`
	Kind       ImageKind `json:"kind" db:"kind"`
	ObjectName string    `json:"-" db:"object_name"`
	ImageURL   string    `json:"imageUrl" db:"image_url"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type BlockType string

const (
	BlockImage BlockType = "image"
	BlockText  BlockType = "text"
	BlockQuote BlockType = "quote"
)

// BlockContent is the union of the per-type payloads; only the fields of the
// block's own type are meaningful.
type BlockContent struct {
	Image   string `json:"image,omitempty"`
	Caption string `json:"caption,omitempty"`
	Credit  string `json:"credit,omitempty"`
	Text    string `json:"text,omitempty"`
	Quote   string `json:"quote,omitempty"`
	Author  string `json:"author,omitempty"`
}

type Block struct {
	ID      string       `json:"id" validate:"required"`
	Type    BlockType    `json:"type" validate:"required,oneof=image text quote"`
	Content BlockContent `json:"content"`
}

type VisualStory struct {
	Title      string  `json:"title"`
	Subtitle   string  `json:"subtitle,omitempty"`
	AuthorName string  `json:"authorName,omitempty"`
	Layout     string  `json:"layout,omitempty"`
	Blocks     []Block `json:"blocks" validate:"dive"`
}

// Overview is the store-wide summary shown on the admin stats page.
type Overview struct {
	Articles int            `json:"articles"`
	ByStatus map[Status]int `json:"byStatus"`
	Users    int            `json:"users"`
	Views    int64          `json:"views"`
}
