package i18n

import "errors"

var (
	ErrInvalidLanguage = errors.New("i18n: invalid language")
	ErrInvalidFile     = errors.New("i18n: invalid message file")
)
