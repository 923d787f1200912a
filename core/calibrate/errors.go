package calibrate

import (
	"fmt"

	"github.com/MariannaR/edgeTransport/core/model"
)

// CalibrationDataGapError reports a node that carries an observed share at
// the reference year but lacks the price data needed to invert it. Always
// fatal: a silent gap here would feed wrong preferences downstream.
type CalibrationDataGapError struct {
	Key model.Key
}

func (e *CalibrationDataGapError) Error() string {
	return fmt.Sprintf("observed share without price data for %s", e.Key)
}
