package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slices"
)

// oneOf accepts a field whose value is one of the space separated values of the tag parameter, as in
// `binding:"oneOf=pending approved vetoed"`.
func oneOf(fl validator.FieldLevel) bool {
	return slices.Contains(strings.Fields(fl.Param()), fl.Field().String())
}

// RegisterValidation adds the oneOf tag to the validator used by gin bindings. It has to run before
// any request is bound.
func RegisterValidation() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin isn't binding with go-playground/validator")
	}
	return v.RegisterValidation("oneOf", oneOf)
}
