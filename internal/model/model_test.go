package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failedFields(t *testing.T, err error) map[string]string {
	t.Helper()

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validator.ValidationErrors, got %v", err)

	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

func TestCreateUserRequest_Validate(t *testing.T) {
	assert.NoError(t, (&CreateUserRequest{Username: "alice"}).Validate())

	err := (&CreateUserRequest{}).Validate()
	assert.Equal(t, map[string]string{"username": "required"}, failedFields(t, err))
	assert.Equal(t, "Username is required", (&CreateUserRequest{}).Summary())
}

func TestCreatePostRequest_Validate(t *testing.T) {
	userID := int64(1)

	valid := &CreatePostRequest{Title: "Hi", Content: "Body", UserID: &userID}
	assert.NoError(t, valid.Validate())

	// user_id 0 is present; resolving it is the service's job.
	zero := int64(0)
	assert.NoError(t, (&CreatePostRequest{Title: "Hi", Content: "Body", UserID: &zero}).Validate())

	missing := &CreatePostRequest{}
	assert.Equal(t, map[string]string{
		"title":   "required",
		"content": "required",
		"user_id": "required",
	}, failedFields(t, missing.Validate()))
	assert.Equal(t, "title, content and user_id are required", missing.Summary())

	long := &CreatePostRequest{Title: strings.Repeat("a", TitleMaxLength+1), Content: "Body", UserID: &userID}
	assert.Equal(t, map[string]string{"title": "max"}, failedFields(t, long.Validate()))
	assert.Equal(t, "Validation failed", long.Summary())

	exact := &CreatePostRequest{Title: strings.Repeat("é", TitleMaxLength), Content: "Body", UserID: &userID}
	assert.NoError(t, exact.Validate())
}
