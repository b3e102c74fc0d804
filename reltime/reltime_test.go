package reltime

import (
	"errors"
	"testing"
	"testing/fstest"
	"time"
)

var now = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func newFormatter(t *testing.T, locale string, opts ...Option) *Formatter {
	t.Helper()
	f, err := New(locale, append([]Option{WithLocation(time.UTC)}, opts...)...)
	if err != nil {
		t.Fatalf("New(%q): %v", locale, err)
	}
	return f
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name  string
		diff  time.Duration
		unit  Unit
		value int
	}{
		{"same instant", 0, Second, 0},
		{"20s ago", -20 * time.Second, Second, -20},
		{"29.5s ago rounds towards zero", -29500 * time.Millisecond, Second, -29},
		{"45s ago rounds to a minute", -45 * time.Second, Minute, -1},
		{"89s ahead", 89 * time.Second, Minute, 1},
		{"90s ago", -90 * time.Second, Minute, -1},
		{"2h ahead", 2 * time.Hour, Hour, 2},
		{"3 days ago", -72 * time.Hour, Day, -3},
		{"40 days ahead", 40 * 24 * time.Hour, Month, 1},
		{"400 days ahead", 400 * 24 * time.Hour, Year, 1},
		{"2 years ago", -730 * 24 * time.Hour, Year, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, v := Select(now.Add(tt.diff), now)
			if u != tt.unit || v != tt.value {
				t.Errorf("got (%s, %d), want (%s, %d)", u, v, tt.unit, tt.value)
			}
		})
	}
}

func TestSelect_FarApart(t *testing.T) {
	then := time.Date(1200, 1, 1, 0, 0, 0, 0, time.UTC)
	u, v := Select(then, now)
	if u != Year || v > -820 || v < -830 {
		t.Errorf("got (%s, %d), want about -824 years", u, v)
	}
}

// rank orders results by unit size, then magnitude.
func rank(u Unit, v int) int {
	if v < 0 {
		v = -v
	}
	return int(Second-u)*1_000_000 + v
}

func TestSelect_Monotonic(t *testing.T) {
	for _, sign := range []time.Duration{1, -1} {
		prev := -1
		step := func(d time.Duration) {
			u, v := Select(now.Add(sign*d), now)
			r := rank(u, v)
			if r < prev {
				t.Fatalf("diff %v: (%s, %d) ranks below previous", sign*d, u, v)
			}
			prev = r
		}
		for d := time.Duration(0); d < 2*time.Hour; d += time.Second {
			step(d)
		}
		for d := 2 * time.Hour; d < 3*365*24*time.Hour; d += 997 * time.Second {
			step(d)
		}
	}
}

func TestFormat_English(t *testing.T) {
	f := newFormatter(t, "en-US")
	tests := []struct {
		diff time.Duration
		want string
	}{
		{0, "now"},
		{-20 * time.Second, "20 seconds ago"},
		{-45 * time.Second, "1 minute ago"},
		{5 * time.Minute, "in 5 minutes"},
		{2 * time.Hour, "in 2 hours"},
		{-24 * time.Hour, "yesterday"},
		{-72 * time.Hour, "3 days ago"},
		{400 * 24 * time.Hour, "next year"},
		{-730 * 24 * time.Hour, "2 years ago"},
	}
	for _, tt := range tests {
		got := f.Format(now.Add(tt.diff), now)
		if got.Display != tt.want {
			t.Errorf("Format(%v): got %q, want %q", tt.diff, got.Display, tt.want)
		}
	}
}

func TestFormat_Tooltip(t *testing.T) {
	f := newFormatter(t, "en-US")
	got := f.Format(now, now.Add(time.Hour))
	want := "Friday, March 15, 2024 at 2:30:00 PM UTC"
	if got.Tooltip != want {
		t.Errorf("Tooltip: got %q, want %q", got.Tooltip, want)
	}
	if got.Display != "1 hour ago" {
		t.Errorf("Display: got %q", got.Display)
	}
}

func TestFormat_French(t *testing.T) {
	f := newFormatter(t, "fr-FR")
	cases := map[time.Duration]string{
		-72 * time.Hour:          "il y a 3 jours",
		-24 * time.Hour:          "hier",
		-730 * 24 * time.Hour:    "il y a 2 ans",
		90 * time.Minute:         "dans 2 heures",
		-1 * time.Minute:         "il y a 1 minute",
		400 * 24 * time.Hour:     "l’année prochaine",
		-10 * 24 * time.Hour * 6: "il y a 2 mois",
	}
	for diff, want := range cases {
		if got := f.Format(now.Add(diff), now).Display; got != want {
			t.Errorf("Format(%v): got %q, want %q", diff, got, want)
		}
	}
	if got, want := f.Absolute(now), "vendredi 15 mars 2024 à 14:30:00 UTC"; got != want {
		t.Errorf("Absolute: got %q, want %q", got, want)
	}
}

func TestFormat_TooltipUsesLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata unavailable:", err)
	}
	f := newFormatter(t, "en-US", WithLocation(paris))
	if got, want := f.Absolute(now), "Friday, March 15, 2024 at 3:30:00 PM CET"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNew_LocaleResolution(t *testing.T) {
	if f := newFormatter(t, "fr"); f.Locale() != "fr-FR" {
		t.Errorf("fr resolved to %q", f.Locale())
	}
	if f := newFormatter(t, "ja-JP"); f.Locale() != BaseLocale {
		t.Errorf("ja-JP resolved to %q, want base", f.Locale())
	}
	if _, err := New("not a locale!"); !errors.Is(err, ErrUnknownLocale) {
		t.Errorf("got %v, want ErrUnknownLocale", err)
	}
}

func TestWithoutRelative(t *testing.T) {
	f := newFormatter(t, "en-US", WithoutRelative())
	got := f.Format(now.Add(-72*time.Hour), now)
	if got.Display != got.Tooltip {
		t.Errorf("Display %q != Tooltip %q", got.Display, got.Tooltip)
	}
	if got.Unit != Day || got.Value != -3 {
		t.Errorf("unit: got (%s, %d)", got.Unit, got.Value)
	}
	if f.Phrase(Day, -3) != "" {
		t.Error("Phrase without relative should be empty")
	}
}

const enUS = `locale: en-US
absolute:
  layout: "%[1]s, %[2]s %[3]s, %[4]s at %[5]s"
  clock: "3:04 PM"
  weekdays: [Sun, Mon, Tue, Wed, Thu, Fri, Sat]
  months: [Jan, Feb, Mar, Apr, May, Jun, Jul, Aug, Sep, Oct, Nov, Dec]
`

const deDE = `locale: de-DE
absolute:
  layout: "%[1]s, %[3]s. %[2]s %[4]s um %[5]s"
  clock: "15:04:05 MST"
  weekdays: [Sonntag, Montag, Dienstag, Mittwoch, Donnerstag, Freitag, Samstag]
  months: [Januar, Februar, März, April, Mai, Juni, Juli, August, September, Oktober, November, Dezember]
`

func TestLocaleWithoutRelative_FallsBackToAbsolute(t *testing.T) {
	b, err := LoadFromFS(fstest.MapFS{
		"locales/en-US.yaml": {Data: []byte(enUS)},
		"locales/de-DE.yaml": {Data: []byte(deDE)},
	})
	if err != nil {
		t.Fatal(err)
	}
	f := newFormatter(t, "de-DE", WithBundle(b))
	if f.Relative() {
		t.Fatal("de-DE has no relative phrases")
	}
	got := f.Format(now.Add(-72*time.Hour), now)
	want := "Dienstag, 12. März 2024 um 14:30:00 UTC"
	if got.Display != want || got.Tooltip != want {
		t.Errorf("got %+v, want both %q", got, want)
	}
}

func TestLoadFromFS_Errors(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"no files":       {},
		"no base locale": {"locales/de-DE.yaml": {Data: []byte(deDE)}},
		"name mismatch":  {"locales/en-GB.yaml": {Data: []byte(enUS)}},
		"partial relative": {"locales/en-US.yaml": {Data: []byte(enUS + `relative:
  day:
    past: {other: "%d days ago"}
    future: {other: "in %d days"}
`)}},
	}
	for name, fsys := range tests {
		if _, err := LoadFromFS(fsys); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDefaultLocale(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "fr_FR.UTF-8")
	if got := DefaultLocale(); got != "fr-FR" {
		t.Errorf("LANG: got %q", got)
	}
	t.Setenv("LC_ALL", "C")
	if got := DefaultLocale(); got != BaseLocale {
		t.Errorf("LC_ALL=C: got %q", got)
	}
}

func TestParseInstant(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-01T00:00:00Z", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-01-01T08:00:00.250+02:00", time.Date(2024, 1, 1, 6, 0, 0, 250e6, time.UTC)},
		{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{" 2024-01-01T10:00 ", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
		{"2024-01-01T10:00:30", time.Date(2024, 1, 1, 9, 0, 30, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseInstant(tt.in, paris)
		if err != nil {
			t.Errorf("ParseInstant(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseInstant(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseInstant_Fallback(t *testing.T) {
	got, err := ParseInstant("Mon, 02 Jan 2006 15:04:05 MST", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if got.Year() != 2006 || got.Month() != time.January || got.Day() != 2 {
		t.Errorf("got %v", got)
	}
}

func TestParseInstant_Malformed(t *testing.T) {
	for _, in := range []string{"", "   ", "not a date"} {
		if _, err := ParseInstant(in, time.UTC); !errors.Is(err, ErrMalformedInstant) {
			t.Errorf("ParseInstant(%q): got %v, want ErrMalformedInstant", in, err)
		}
	}
}

func TestUnitText(t *testing.T) {
	for _, u := range Units {
		b, _ := u.MarshalText()
		var back Unit
		if err := back.UnmarshalText(b); err != nil || back != u {
			t.Errorf("%s: got %s, %v", u, back, err)
		}
	}
	if _, err := ParseUnit("fortnight"); err == nil {
		t.Error("expected error for unknown unit")
	}
}
