package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockable maps configuration names to CDP resource types. Documents,
// scripts and XHR are absent: pages must keep updating themselves for the
// renderer to have anything to watch.
var blockable = map[string]proto.NetworkResourceType{
	"images":      proto.NetworkResourceTypeImage,
	"fonts":       proto.NetworkResourceTypeFont,
	"media":       proto.NetworkResourceTypeMedia,
	"stylesheets": proto.NetworkResourceTypeStylesheet,
	"manifests":   proto.NetworkResourceTypeManifest,
}

// blockSet is the set of resource types a tab refuses to load.
type blockSet map[proto.NetworkResourceType]bool

// newBlockSet resolves configuration names. Unknown names are returned
// separately so the caller can report them.
func newBlockSet(names []string) (blockSet, []string) {
	set := make(blockSet, len(names))
	var unknown []string
	for _, n := range names {
		typ, ok := blockable[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		set[typ] = true
	}
	return set, unknown
}

func (s blockSet) blocks(typ proto.NetworkResourceType) bool { return s[typ] }

// install intercepts every request of page and fails the blocked ones. The
// returned router must be stopped when the tab closes.
func (s blockSet) install(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if s.blocks(h.Request.Type()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
