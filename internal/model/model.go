// Package model holds the domain entities of the blog API and the request
// payloads the handlers bind into.
package model

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by all payloads; *validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

// newValidator reports fields under their JSON names ("user_id", not "UserID").
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
