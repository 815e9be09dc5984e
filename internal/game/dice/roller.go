package dice

import "go.uber.org/zap"

// Roller rolls against a Source and debug-logs every roll under a label
// naming what it was for ("Slime attack", "flee").
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the randomness the roller draws from.
func (r *Roller) Source() Source { return r.src }

// D20 rolls one twenty-sided die.
//
// Postcondition: Returns a value in [1, 20].
func (r *Roller) D20(label string) int {
	v := r.src.Intn(20) + 1
	r.logger.Debug("d20", zap.String("label", label), zap.Int("value", v))
	return v
}

// Roll parses and rolls expr.
func (r *Roller) Roll(label, expr string) (Result, error) {
	e, err := Parse(expr)
	if err != nil {
		return Result{}, err
	}
	res := e.Roll(r.src)
	r.logger.Debug("roll",
		zap.String("label", label),
		zap.Stringer("expression", e),
		zap.Ints("faces", res.Faces),
		zap.Int("total", res.Total()),
	)
	return res, nil
}
