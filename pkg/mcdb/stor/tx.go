package stor

import (
	"errors"

	"github.com/materials-commons/mcbun/pkg/mcdb/config"
	"github.com/materials-commons/mcbun/pkg/rerr"
	"gorm.io/gorm"
)

// WithTxRetry runs fn in a transaction, retrying database failures. Catalog
// status errors returned by fn are final and end the retries.
func WithTxRetry(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error

	for i := 0; i < config.GetTxRetry(); i++ {
		err = db.Transaction(fn)
		if err == nil {
			break
		}

		var statusErr *rerr.Error
		if errors.As(err, &statusErr) {
			break
		}
	}

	return err
}
