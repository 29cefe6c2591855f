package upload

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Sentinel errors for upload handling.
var (
	ErrReleased      = errors.New("upload: part already released")
	ErrInvalidConfig = errors.New("upload: invalid storage configuration")
	ErrStoreFailed   = errors.New("upload: store failed")
	ErrAccessDenied  = errors.New("upload: access denied")
	ErrNoSuchBucket  = errors.New("upload: bucket not found")
)

// Rule error codes.
const (
	CodeTooLarge    = "file_too_large"
	CodeTooSmall    = "file_too_small"
	CodeInvalidMIME = "invalid_mime"
	CodeEmpty       = "empty_file"
)

// RuleError reports a part that failed an upload rule.
type RuleError struct {
	Details map[string]any // observed ("got") and permitted ("limit", "allowed") values
	Code    string
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

// wrapS3Error maps S3 API failures onto package sentinels.
func wrapS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrNoSuchBucket, err)
		}
	}

	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return fmt.Errorf("%w: %v", ErrNoSuchBucket, err)
	}

	return fmt.Errorf("%w: %v", ErrStoreFailed, err)
}
