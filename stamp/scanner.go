package stamp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/timewatch/dom"
	"github.com/hazyhaar/timewatch/reltime"
)

// Defaults for Config.
const (
	DefaultSelector  = "time[datetime]"
	DefaultAttribute = "datetime"
	DefaultTitleAttr = "title"
)

// Config configures a Scanner. Zero fields take the defaults above.
type Config struct {
	Selector  string
	Attribute string
	TitleAttr string
	Marker    string

	Formatter *reltime.Formatter // nil = reltime.New("") with Location
	Clock     Clock              // nil = SystemClock
	Location  *time.Location     // zone for instants without offset; nil = time.Local
	Logger    *slog.Logger
}

// Rendered describes one element the scanner wrote.
type Rendered struct {
	Path     string       `json:"path"`
	Tag      string       `json:"tag"`
	Datetime string       `json:"datetime"`
	Display  string       `json:"display"`
	Tooltip  string       `json:"tooltip"`
	Unit     reltime.Unit `json:"unit"`
	Value    int          `json:"value"`
}

// Report summarises one Scan. Failed elements are left unmarked and are
// written again by the next scan that reaches them.
type Report struct {
	Rendered  []Rendered `json:"rendered"`
	Malformed int        `json:"malformed"`
	Failed    int        `json:"failed"`
}

func (r *Report) merge(o Report) {
	r.Rendered = append(r.Rendered, o.Rendered...)
	r.Malformed += o.Malformed
	r.Failed += o.Failed
}

// Scanner renders every unprocessed timestamp element under a root.
type Scanner struct {
	selector  string
	attribute string
	titleAttr string
	tagger    *Tagger
	formatter *reltime.Formatter
	clock     Clock
	loc       *time.Location
	logger    *slog.Logger
}

// NewScanner validates cfg and builds a Scanner.
func NewScanner(cfg Config) (*Scanner, error) {
	if cfg.Selector == "" {
		cfg.Selector = DefaultSelector
	}
	if cfg.Attribute == "" {
		cfg.Attribute = DefaultAttribute
	}
	if cfg.TitleAttr == "" {
		cfg.TitleAttr = DefaultTitleAttr
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if _, err := dom.CompileSelector(cfg.Selector); err != nil {
		return nil, fmt.Errorf("stamp: %w", err)
	}
	if cfg.Formatter == nil {
		f, err := reltime.New("", reltime.WithLocation(cfg.Location))
		if err != nil {
			return nil, fmt.Errorf("stamp: %w", err)
		}
		cfg.Formatter = f
	}
	return &Scanner{
		selector:  cfg.Selector,
		attribute: cfg.Attribute,
		titleAttr: cfg.TitleAttr,
		tagger:    NewTagger(cfg.Marker),
		formatter: cfg.Formatter,
		clock:     cfg.Clock,
		loc:       cfg.Location,
		logger:    cfg.Logger,
	}, nil
}

// Tagger returns the scanner's tagger.
func (s *Scanner) Tagger() *Tagger { return s.tagger }

// Selector returns the timestamp selector.
func (s *Scanner) Selector() string { return s.selector }

// Scan renders root, when it is itself eligible, then every eligible
// descendant in document order. Failures are contained per element.
func (s *Scanner) Scan(root dom.Element) Report {
	var rep Report
	if root == nil {
		return rep
	}
	if root.IsElement() {
		ok, err := root.Matches(s.selector)
		if err != nil {
			s.logger.Debug("stamp: match root", "path", root.Path(), "error", err)
		} else if ok {
			s.process(root, &rep)
		}
	}

	found, err := root.QueryAll(s.selector)
	if err != nil {
		s.logger.Warn("stamp: query", "path", root.Path(), "selector", s.selector, "error", err)
		return rep
	}
	for _, el := range found {
		s.process(el, &rep)
	}
	return rep
}

// ScanAll scans each root and merges the reports.
func (s *Scanner) ScanAll(roots []dom.Element) Report {
	var rep Report
	for _, r := range roots {
		rep.merge(s.Scan(r))
	}
	return rep
}

func (s *Scanner) process(el dom.Element, rep *Report) {
	if s.tagger.IsProcessed(el) {
		return
	}
	raw, ok := el.Attr(s.attribute)
	if !ok {
		return
	}
	t, err := reltime.ParseInstant(raw, s.loc)
	if err != nil {
		rep.Malformed++
		s.logger.Debug("stamp: skip malformed instant", "path", el.Path(), "value", raw)
		return
	}

	res := s.formatter.Format(t, s.clock.Now())
	if err := s.write(el, res); err != nil {
		rep.Failed++
		s.logger.Warn("stamp: render failed", "path", el.Path(), "error", err)
		return
	}
	rep.Rendered = append(rep.Rendered, Rendered{
		Path:     el.Path(),
		Tag:      el.Tag(),
		Datetime: raw,
		Display:  res.Display,
		Tooltip:  res.Tooltip,
		Unit:     res.Unit,
		Value:    res.Value,
	})
}

// write sets the tooltip before the visible text so that a failed write
// leaves the author's text in place.
func (s *Scanner) write(el dom.Element, res reltime.Result) error {
	if err := el.SetAttr(s.titleAttr, res.Tooltip); err != nil {
		return fmt.Errorf("set %s: %w", s.titleAttr, err)
	}
	if err := el.SetText(res.Display); err != nil {
		return fmt.Errorf("set text: %w", err)
	}
	if err := s.tagger.MarkProcessed(el); err != nil {
		return fmt.Errorf("mark: %w", err)
	}
	return nil
}
