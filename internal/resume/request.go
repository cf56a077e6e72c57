package resume

import (
	"errors"
	"fmt"
)

// Request describes one ReadRows call.
type Request struct {
	Table      string
	AppProfile string
	Rows       RowSet
	// RowsLimit caps the number of rows returned, 0 means no limit.
	RowsLimit int64
	Reversed  bool
}

// Validate checks the request before it is sent or served.
func (r *Request) Validate() error {
	var errs []error
	if r.Table == "" {
		errs = append(errs, errors.New("table is required"))
	}
	if r.RowsLimit < 0 {
		errs = append(errs, errors.New("rows limit cannot be negative"))
	}
	for i, rng := range r.Rows.Ranges {
		if err := rng.validate(); err != nil {
			errs = append(errs, fmt.Errorf("range %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
