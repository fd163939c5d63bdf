package media

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// maxContentSize limits a []byte field. A limit of 0 disables the check.
func maxContentSize(limit int64, what string) validation.Rule {
	return validation.By(func(value interface{}) error {
		content, _ := value.([]byte)
		if limit > 0 && int64(len(content)) > limit {
			return fmt.Errorf("%s exceeds maximum size of %d bytes", what, limit)
		}
		return nil
	})
}
