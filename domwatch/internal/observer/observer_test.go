package observer

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/hazyhaar/timewatch/dom"
)

func TestObserveInsertions_ForeignScope(t *testing.T) {
	p := &Page{logger: slog.Default(), handlers: map[string][]func(){}}
	other := &Page{}

	doc, err := dom.ParseString(`<html><body></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	scopes := map[string]dom.Element{
		"nil":        nil,
		"in-process": doc.Body(),
		"other page": &element{page: other},
	}
	for name, scope := range scopes {
		if err := p.ObserveInsertions(scope, func([]dom.Element) {}); !errors.Is(err, ErrForeignScope) {
			t.Errorf("%s: got %v, want ErrForeignScope", name, err)
		}
	}
	if len(p.inserts) != 0 {
		t.Errorf("subscriptions registered: %d", len(p.inserts))
	}
}

func TestEmbeddedScripts(t *testing.T) {
	if !strings.Contains(bridgeJS, "addEventListener") {
		t.Error("bridge script missing listener")
	}
	if !strings.Contains(pathJS, "localName") {
		t.Error("path script missing")
	}
}

func TestElement_InvalidSelector(t *testing.T) {
	e := &element{page: &Page{logger: slog.Default()}}
	if _, err := e.Matches("time[datetime"); !errors.Is(err, dom.ErrInvalidSelector) {
		t.Errorf("Matches: got %v", err)
	}
	if _, err := e.QueryAll(":::"); !errors.Is(err, dom.ErrInvalidSelector) {
		t.Errorf("QueryAll: got %v", err)
	}
}
