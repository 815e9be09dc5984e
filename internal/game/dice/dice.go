// Package dice rolls the "NdS+M" expressions used for enemy damage, and the
// d20 checks of attacks, initiative, and fleeing.
package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Bounds on a single expression.
const (
	MaxCount    = 100
	MaxSides    = 1000
	MaxModifier = 1000
)

// ErrSyntax is matched by every Parse failure.
var ErrSyntax = errors.New("dice: invalid expression")

var exprPattern = regexp.MustCompile(`^(\d*)d(\d+)(?:([+-])(\d+))?$`)

// Expression is a parsed dice expression: Count dice of Sides faces, plus Modifier.
type Expression struct {
	Count    int
	Sides    int
	Modifier int
}

// String returns the canonical form, e.g. "2d6+3" or "1d20".
func (e Expression) String() string {
	switch {
	case e.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", e.Count, e.Sides, e.Modifier)
	case e.Modifier < 0:
		return fmt.Sprintf("%dd%d%d", e.Count, e.Sides, e.Modifier)
	default:
		return fmt.Sprintf("%dd%d", e.Count, e.Sides)
	}
}

// Min and Max are the smallest and largest totals e can roll.
func (e Expression) Min() int { return e.Count + e.Modifier }
func (e Expression) Max() int { return e.Count*e.Sides + e.Modifier }

// Parse reads expressions of the form "d20", "2d6", "2d6+3", or "4d8-2".
// Case and surrounding spaces are ignored.
//
// Postcondition: Returns an error matching ErrSyntax unless 1 <= Count <= MaxCount,
// 2 <= Sides <= MaxSides, and |Modifier| <= MaxModifier.
func Parse(s string) (Expression, error) {
	m := exprPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return Expression{}, fmt.Errorf("%w %q", ErrSyntax, s)
	}
	e := Expression{Count: 1}
	if m[1] != "" {
		e.Count = bounded(m[1], MaxCount)
	}
	e.Sides = bounded(m[2], MaxSides)
	if m[4] != "" {
		e.Modifier = bounded(m[4], MaxModifier)
		if m[3] == "-" {
			e.Modifier = -e.Modifier
		}
	}
	if e.Count < 1 || e.Count > MaxCount {
		return Expression{}, fmt.Errorf("%w %q: count must be in [1, %d]", ErrSyntax, s, MaxCount)
	}
	if e.Sides < 2 || e.Sides > MaxSides {
		return Expression{}, fmt.Errorf("%w %q: sides must be in [2, %d]", ErrSyntax, s, MaxSides)
	}
	if e.Modifier < -MaxModifier || e.Modifier > MaxModifier {
		return Expression{}, fmt.Errorf("%w %q: modifier must be in [-%d, %d]", ErrSyntax, s, MaxModifier, MaxModifier)
	}
	return e, nil
}

// bounded parses a run of digits, mapping anything too large for int to
// limit+1 so the caller's range check rejects it.
func bounded(digits string, limit int) int {
	n, err := strconv.Atoi(digits)
	if err != nil || n > limit {
		return limit + 1
	}
	return n
}

// MustParse is Parse for expressions known at compile time.
func MustParse(s string) Expression {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
}

// Result is one evaluation of an Expression.
type Result struct {
	Expression Expression
	Faces      []int
}

// Total is the sum of the faces plus the modifier.
func (r Result) Total() int {
	total := r.Expression.Modifier
	for _, f := range r.Faces {
		total += f
	}
	return total
}

// String renders the roll for logs, e.g. "2d6+3 [4 5] = 12".
func (r Result) String() string {
	return fmt.Sprintf("%s %v = %d", r.Expression, r.Faces, r.Total())
}

// Roll evaluates e with src.
//
// Postcondition: len(Faces) == e.Count and every face is in [1, e.Sides].
func (e Expression) Roll(src Source) Result {
	faces := make([]int, e.Count)
	for i := range faces {
		faces[i] = src.Intn(e.Sides) + 1
	}
	return Result{Expression: e, Faces: faces}
}
