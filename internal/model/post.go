package model

// Post is a single blog post as stored: it references its author by id.
type Post struct {
	ID      int64  `json:"id" db:"id"`
	Title   string `json:"title" db:"title"`
	Content string `json:"content" db:"content"`
	UserID  int64  `json:"user_id" db:"user_id"`
}

// Author is the user summary embedded in post listings.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// PostWithAuthor is a post joined with its author, the shape of GET /posts.
type PostWithAuthor struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  Author `json:"author"`
}

// TitleMaxLength matches the posts.title VARCHAR(200) column.
const TitleMaxLength = 200

// ListPostsRequest has no parameters.
type ListPostsRequest struct{}

func (r *ListPostsRequest) Validate() error {
	return nil
}

// CreatePostRequest is the body of POST /posts.
//
// UserID is a pointer so a missing user_id is told apart from an explicit 0.
type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
	UserID  *int64 `json:"user_id" validate:"required"`
}

func (r *CreatePostRequest) Validate() error {
	return validate.Struct(r)
}

// Summary keeps the single message clients already match on for missing
// fields; other failures (title too long) use the generic one.
func (r *CreatePostRequest) Summary() string {
	if r.Title == "" || r.Content == "" || r.UserID == nil {
		return "title, content and user_id are required"
	}
	return "Validation failed"
}
