package storefront

import (
	"errors"
	"strings"
)

// ImageRejectedError marks the storefront refusing a product payload because
// of its image attachments (trial-account file limits and similar). The sync
// stage retries once without images when it sees this signature.
type ImageRejectedError struct {
	Detail string
}

func (e *ImageRejectedError) Error() string {
	if e == nil || e.Detail == "" {
		return "storefront rejected product images"
	}
	return "storefront rejected product images: " + e.Detail
}

// IsImageRejected reports whether err carries the image-rejection signature.
func IsImageRejected(err error) bool {
	var typed *ImageRejectedError
	return errors.As(err, &typed)
}

// looksLikeImageRejection inspects an error body for the known signatures of
// the image-attachment failure mode.
func looksLikeImageRejection(body string) bool {
	lower := strings.ToLower(body)
	if !strings.Contains(lower, "image") {
		return false
	}
	for _, marker := range []string{"exceeded", "limit", "not supported", "storage"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
