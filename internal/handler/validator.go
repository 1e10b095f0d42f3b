package handler

import (
	"errors"
	"regexp"

	"github.com/VladGeana/radar/internal/ierr"
)

// NameValidator checks room and visitor identity names. Names may carry
// spaces ("Heartland Cafe") but must start with a word character.
type NameValidator struct {
	nameRegex *regexp.Regexp
}

func NewNameValidator() *NameValidator {
	return &NameValidator{
		nameRegex: regexp.MustCompile(`^[\w][\w .'-]*$`),
	}
}

func (v *NameValidator) Validate(name string) error {
	valid := v.nameRegex.MatchString(name)
	if !valid {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid identity name"))
	}

	return nil
}
