package model

// User is a person who can author posts.
type User struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
}

// ListUsersRequest has no parameters; it exists so GET /users goes through
// the same typed handler pipeline as every other route.
type ListUsersRequest struct{}

func (r *ListUsersRequest) Validate() error {
	return nil
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
}

func (r *CreateUserRequest) Validate() error {
	return validate.Struct(r)
}

// Summary is the top-level message for a failed validation.
func (r *CreateUserRequest) Summary() string {
	return "Username is required"
}

// ListUserPostsRequest addresses GET /users/:id/posts. A non-integer id
// fails binding; any integer is looked up, so unknown ids are a 404.
type ListUserPostsRequest struct {
	UserID int64 `param:"id"`
}

func (r *ListUserPostsRequest) Validate() error {
	return nil
}
