package model

import "time"

// Creation statuses derived from the display URL.
const (
	CreationStatusPending   = "pending"
	CreationStatusPublished = "published"
)

// Image is the render record behind a creation. ImageURL stays empty until
// the generator returns.
type Image struct {
	ID        int64     `db:"id" json:"id"`
	Prompt    string    `db:"prompt" json:"prompt"`
	UserID    int64     `db:"user_id" json:"userId"`
	ImageURL  string    `db:"image_url" json:"imageUrl"`
	IsPremium bool      `db:"is_premium" json:"isPremium"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Creation is the publishable unit. A nil DisplayURL means pending; the row
// is invisible to every public read path until it is set.
type Creation struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"userId"`
	ImageID    int64     `db:"image_id" json:"imageId"`
	DisplayURL *string   `db:"display_url" json:"displayUrl"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

func (c *Creation) IsPublished() bool {
	return c.DisplayURL != nil
}

// CreationView is a creation joined with its image, creator and like data.
type CreationView struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"userId"`
	DisplayURL *string   `db:"display_url" json:"displayUrl"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	Status     string    `db:"-" json:"status"`

	Prompt    string `db:"prompt" json:"prompt"`
	ImageURL  string `db:"image_url" json:"imageUrl"`
	IsPremium bool   `db:"is_premium" json:"isPremium"`

	LikeCount    int  `db:"like_count" json:"likeCount"`
	CommentCount int  `db:"comment_count" json:"commentCount"`
	IsLiked      bool `db:"is_liked" json:"isLiked"`

	CreatorName       string  `db:"creator_name" json:"-"`
	CreatorHandle     *string `db:"creator_handle" json:"-"`
	CreatorProfileURL string  `db:"creator_profile_url" json:"-"`

	Creator UserSummary `db:"-" json:"creator"`
}

// Finalize fills the derived fields after a scan.
func (v *CreationView) Finalize() {
	v.Status = CreationStatusPending
	if v.DisplayURL != nil {
		v.Status = CreationStatusPublished
	}
	v.Creator = UserSummary{
		ID:         v.UserID,
		Name:       v.CreatorName,
		Handle:     v.CreatorHandle,
		ProfileURL: v.CreatorProfileURL,
	}
}

// SubmitCreationRequest is the body of POST /creations.
type SubmitCreationRequest struct {
	Prompt    string `json:"prompt" validate:"required,max=2000"`
	Category  string `json:"category" validate:"omitempty,max=64"`
	IsPremium bool   `json:"isPremium"`
}

// SubmitResult is returned once a creation has been published.
type SubmitResult struct {
	CreationID int64  `json:"creationId"`
	ImageID    int64  `json:"imageId"`
	ImageURL   string `json:"imageUrl"`
	DisplayURL string `json:"displayUrl"`
}

// CreationPage is an offset-paginated list of creations.
type CreationPage struct {
	Creations []CreationView `json:"creations"`
	Pagination
}
