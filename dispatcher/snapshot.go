package dispatcher

import (
	"context"
	"strings"

	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
	"github.com/use-agent/ccbrowser/pagestate"
)

// interestingRoles are the accessibility roles the snapshot surfaces as
// addressable refs. Purely structural roles (group, generic, none, ...)
// are skipped — they are never click/type/select targets.
var interestingRoles = map[string]bool{
	"button":   true,
	"link":     true,
	"textbox":  true,
	"checkbox": true,
	"radio":    true,
	"combobox": true,
	"heading":  true,
	"img":      true,
	"listitem": true,
	"menuitem": true,
	"tab":      true,
}

// Snapshot produces a compact accessibility-derived ref map for the page
// (spec.md §2's "Snapshot Engine ... invoked through an opaque call; spec
// covers only its output contract"). It replaces the page's ref map
// wholesale (spec.md §3) and saves a copy into the cross-navigation ref
// cache.
func (d *Dispatcher) Snapshot(ctx context.Context, req *models.SnapshotRequest) (*models.SnapshotResponse, error) {
	page, entry, err := d.resolvePage(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = models.RefModeRole
	}

	tree, err := proto.AccessibilityGetFullAXTree{}.Call(page.Context(ctx))
	if err != nil {
		return nil, ccerrors.New(ccerrors.CodeInternal, "failed to read the accessibility tree", err)
	}

	entry.ResetRefs()
	seen := map[string]int{}
	nodes := make([]models.SnapshotNode, 0, len(tree.Nodes))

	for _, n := range tree.Nodes {
		if n.Role == nil {
			continue
		}
		role := n.Role.Value.Str()
		if !interestingRoles[role] {
			continue
		}
		name := ""
		if n.Name != nil {
			name = n.Name.Value.Str()
		}

		key := role + "|" + strings.ToLower(name)
		nth := seen[key]
		seen[key] = nth + 1

		ref := entry.AllocRef(models.ElementDescriptor{Role: role, Name: name, Nth: nth, Mode: mode})
		nodes = append(nodes, models.SnapshotNode{Ref: ref, Role: role, Name: name})
	}

	info, _ := page.Info()
	var url, title string
	if info != nil {
		url, title = info.URL, info.Title
	}
	d.RefCache.Put(pagestate.RefCacheKey{NormalizedURL: normalizeURL(url), TargetID: string(page.TargetID)}, entry.AllRefs())

	logVerb("snapshot", "url", url, "refs", len(nodes))
	return &models.SnapshotResponse{URL: url, Title: title, Nodes: nodes}, nil
}
