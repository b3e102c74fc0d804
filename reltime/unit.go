package reltime

import "fmt"

// Unit is a relative-time unit.
type Unit int

const (
	Year Unit = iota
	Month
	Day
	Hour
	Minute
	Second
)

// Units lists the units largest first. Unit selection walks it in order and
// stops at the first non-zero magnitude.
var Units = [...]Unit{Year, Month, Day, Hour, Minute, Second}

var unitNames = [...]string{"year", "month", "day", "hour", "minute", "second"}

func (u Unit) String() string {
	if u < Year || u > Second {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return unitNames[u]
}

// ParseUnit maps a unit name ("day") back to its Unit.
func ParseUnit(s string) (Unit, error) {
	for i, name := range unitNames {
		if name == s {
			return Unit(i), nil
		}
	}
	return 0, fmt.Errorf("reltime: unknown unit %q", s)
}

func (u Unit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *Unit) UnmarshalText(b []byte) error {
	v, err := ParseUnit(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}
