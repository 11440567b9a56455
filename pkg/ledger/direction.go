package ledger

import "fmt"

// Direction says whether a transaction adds to or removes from an account
// balance.
type Direction int

const (
	Credit Direction = iota + 1
	Debit
)

// ParseDirection accepts the wire forms "CREDIT" and "DEBIT".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "CREDIT":
		return Credit, nil
	case "DEBIT":
		return Debit, nil
	}
	return 0, fmt.Errorf("%w: direction must be CREDIT or DEBIT, got %q", ErrInvalidArgument, s)
}

func (d Direction) String() string {
	switch d {
	case Credit:
		return "CREDIT"
	case Debit:
		return "DEBIT"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}
