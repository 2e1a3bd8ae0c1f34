package stor

import (
	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// dbErr turns a missing row into CAT_NO_ROWS_FOUND and annotates other
// database failures with what was being looked up.
func dbErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rerr.New(rerr.CatNoRowsFound, format, args...)
	}

	return errors.Wrapf(err, format, args...)
}
