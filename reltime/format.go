package reltime

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/message"
)

// Result is one rendered timestamp.
type Result struct {
	Display string `json:"display"`
	Tooltip string `json:"tooltip"`
	Unit    Unit   `json:"unit"`
	Value   int    `json:"value"`
}

// Formatter renders instants as relative phrases plus an absolute tooltip.
// It is immutable after New and safe for concurrent use.
type Formatter struct {
	bundle   *Bundle
	locale   *Locale
	loc      *time.Location
	relative bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithLocation sets the zone used for the absolute tooltip. Default
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(f *Formatter) {
		if loc != nil {
			f.loc = loc
		}
	}
}

// WithoutRelative disables relative phrasing: Display equals Tooltip.
func WithoutRelative() Option {
	return func(f *Formatter) { f.relative = false }
}

// WithBundle uses b instead of the embedded locales.
func WithBundle(b *Bundle) Option {
	return func(f *Formatter) {
		if b != nil {
			f.bundle = b
		}
	}
}

// New creates a Formatter for the given BCP 47 locale. An empty locale
// means DefaultLocale(). A well-formed locale with no catalog falls back to
// BaseLocale; a malformed one returns ErrUnknownLocale.
func New(locale string, opts ...Option) (*Formatter, error) {
	f := &Formatter{bundle: defaultBundle, loc: time.Local, relative: true}
	for _, o := range opts {
		o(f)
	}
	if locale == "" {
		locale = DefaultLocale()
	}
	l, err := f.bundle.Match(locale)
	if err != nil {
		return nil, err
	}
	f.locale = l
	if !l.HasRelative() {
		f.relative = false
	}
	return f, nil
}

// Locale returns the resolved locale identifier.
func (f *Formatter) Locale() string { return f.locale.ID }

// Relative reports whether Display carries relative phrasing.
func (f *Formatter) Relative() bool { return f.relative }

// Format renders t relative to now. Unit and Value are always the selected
// unit, even when relative phrasing is unavailable.
func (f *Formatter) Format(t, now time.Time) Result {
	unit, value := Select(t, now)
	p := f.bundle.printer(f.locale)
	tooltip := f.absolute(p, t)
	display := tooltip
	if f.relative {
		display = f.phrase(p, unit, value)
	}
	return Result{Display: display, Tooltip: tooltip, Unit: unit, Value: value}
}

// Phrase renders a signed value in unit ("3 days ago", "tomorrow").
// Without relative phrasing it returns the empty string.
func (f *Formatter) Phrase(unit Unit, value int) string {
	if !f.relative {
		return ""
	}
	return f.phrase(f.bundle.printer(f.locale), unit, value)
}

func (f *Formatter) phrase(p *message.Printer, unit Unit, value int) string {
	if s, ok := f.locale.auto[unit][value]; ok {
		return s
	}
	if value < 0 {
		return p.Sprintf(relativeKey(unit, "past"), -value)
	}
	return p.Sprintf(relativeKey(unit, "future"), value)
}

// Absolute renders the long absolute form of t (full date, long time with
// zone) in the formatter's location.
func (f *Formatter) Absolute(t time.Time) string {
	return f.absolute(f.bundle.printer(f.locale), t)
}

func (f *Formatter) absolute(p *message.Printer, t time.Time) string {
	t = t.In(f.loc)
	a := f.locale.absolute
	return p.Sprintf(keyAbsolute,
		a.Weekdays[t.Weekday()],
		a.Months[t.Month()-1],
		strconv.Itoa(t.Day()),
		strconv.Itoa(t.Year()),
		t.Format(a.Clock),
	)
}

// DefaultLocale derives a BCP 47 identifier from LC_ALL, LC_MESSAGES and
// LANG, in that order. "C", "POSIX" and unset resolve to BaseLocale.
func DefaultLocale() string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(k); v != "" {
			return posixToBCP47(v)
		}
	}
	return BaseLocale
}

// posixToBCP47 maps "fr_FR.UTF-8@euro" to "fr-FR".
func posixToBCP47(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "" || v == "C" || v == "POSIX" {
		return BaseLocale
	}
	return strings.ReplaceAll(v, "_", "-")
}
