package logit

import (
	"fmt"

	"github.com/MariannaR/edgeTransport/core/model"
)

// MissingPriceError marks a leaf that lacked a usable price record for a
// region and year. The leaf is excluded from its parent's choice set; the
// calibrator escalates it when the leaf carries an observed share.
type MissingPriceError struct {
	Key model.Key
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("no usable price for %s", e.Key)
}

// DegenerateNestError reports a nest whose children are all unavailable.
// Processing halts for the affected region only.
type DegenerateNestError struct {
	Key model.Key
}

func (e *DegenerateNestError) Error() string {
	return fmt.Sprintf("all children of %s unavailable", e.Key)
}
