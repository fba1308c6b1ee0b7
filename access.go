package glyphflow

import (
	"sort"

	"golang.org/x/image/math/fixed"
)

// NodeID identifies an accessibility node across BuildNodes passes. The
// zero value denotes "no node" (used for PreviousOnLine/NextOnLine on a
// run with no such neighbour), following io/input's SemanticID
// convention (by convention the zero value denotes the non-existent
// ID).
type NodeID uint64

// runPath identifies a run by its position (line index, run index
// within that line in logical reading order) so the same run keeps the
// same NodeID across incremental re-layouts, following
// accessibility.rs's (line_index, run_index) keying.
type runPath struct {
	Line, Run int
}

// AccessNode is one text run's accessibility projection: its bounds,
// direction, text, and the parallel per-cluster arrays a screen reader
// needs to map a character offset to a screen position, per spec §4.9.
type AccessNode struct {
	ID     NodeID
	Bounds Rect
	RTL    bool
	Text   string

	// CharacterLengths holds each cluster's UTF-8 byte count.
	CharacterLengths []int
	// CharacterPositions holds each cluster's x offset from the run's
	// own origin (not the line's).
	CharacterPositions []fixed.Int26_6
	// CharacterWidths holds each cluster's advance.
	CharacterWidths []fixed.Int26_6
	// WordLengths holds the cluster count of each word, as delimited by
	// cluster word-boundary flags.
	WordLengths []int

	// PreviousOnLine/NextOnLine link this run to its logical-order
	// neighbours on the same line; zero means no such neighbour.
	PreviousOnLine, NextOnLine NodeID
}

// Accessibility maintains the stable run-to-NodeID mapping across
// repeated BuildNodes passes over evolving layouts, following
// accessibility.rs's LayoutAccessibility (access_ids_by_run_path /
// run_paths_by_access_id).
type Accessibility struct {
	idByPath map[runPath]NodeID
	pathByID map[NodeID]runPath
}

// NewAccessibility returns an empty, ready-to-use Accessibility.
func NewAccessibility() *Accessibility {
	return &Accessibility{idByPath: map[runPath]NodeID{}, pathByID: map[NodeID]runPath{}}
}

func runTextStart(layout *Layout, run Run) int {
	if run.ClusterRange.Count == 0 {
		return 0
	}
	return layout.Clusters[run.ClusterRange.Offset].Range.Start
}

func runTextEnd(layout *Layout, run Run) int {
	if run.ClusterRange.Count == 0 {
		return 0
	}
	last := layout.Clusters[run.ClusterRange.Offset+run.ClusterRange.Count-1]
	return last.Range.End
}

// BuildNodes projects layout into one AccessNode per text run, assigning
// stable IDs via nextID (called only for runs not already known from a
// prior pass) and pruning IDs for runs that no longer exist, following
// accessibility.rs's build_nodes: each line's runs are walked in visual
// (left-to-right screen) order to compute their x offsets, then resorted
// into logical reading order (by byte start) for node emission and for
// the PreviousOnLine/NextOnLine chain, so assistive technology reads a
// bidi-mixed line in text order while each node's own Bounds still
// reflects its true screen position.
func (a *Accessibility) BuildNodes(text string, layout *Layout, nextID func() NodeID) []AccessNode {
	type visited struct {
		runIndex int
		offset   fixed.Int26_6
	}
	seen := make(map[NodeID]bool)
	var nodes []AccessNode

	for lineIdx := range layout.Lines {
		line := layout.Lines[lineIdx]
		items := layout.LineItems[line.ItemRange.Offset : line.ItemRange.Offset+line.ItemRange.Count]
		order := line.VisualOrder
		if len(order) != len(items) {
			order = identityOrder(len(items))
		}

		var entries []visited
		runOffset := line.Metrics.Offset
		nextRunIndex := 0
		for _, oi := range order {
			item := items[oi]
			if item.Kind != LineItemRun {
				// An inline box occupies visual space but has no
				// accessibility run of its own; just keep the running
				// offset correct for the runs that follow it.
				runOffset += layout.Boxes[item.Index].Width
				continue
			}
			entries = append(entries, visited{runIndex: item.Index, offset: runOffset})
			runOffset += layout.Runs[item.Index].Advance
			nextRunIndex++
		}

		sort.Slice(entries, func(i, j int) bool {
			return runTextStart(layout, layout.Runs[entries[i].runIndex]) < runTextStart(layout, layout.Runs[entries[j].runIndex])
		})

		for logicalIdx, e := range entries {
			run := layout.Runs[e.runIndex]
			start := runTextStart(layout, run)
			end := runTextEnd(layout, run)
			path := runPath{Line: lineIdx, Run: logicalIdx}
			id, ok := a.idByPath[path]
			if !ok {
				id = nextID()
				a.idByPath[path] = id
				a.pathByID[id] = path
			}
			seen[id] = true

			node := AccessNode{
				ID: id,
				Bounds: Rect{
					X0: e.offset, X1: e.offset + run.Advance,
					Y0: line.Metrics.Baseline - line.Metrics.Ascent,
					Y1: line.Metrics.Baseline + line.Metrics.Descent,
				},
				RTL:  run.BidiLevel&1 != 0,
				Text: text[start:end],
			}

			var clusterOffset fixed.Int26_6
			lastWordStart := 0
			clusters := layout.Clusters[run.ClusterRange.Offset : run.ClusterRange.Offset+run.ClusterRange.Count]
			for _, c := range clusters {
				if c.IsWordBoundary && !c.Whitespace.IsSpaceOrNBSP() && len(node.CharacterLengths) > 0 {
					node.WordLengths = append(node.WordLengths, len(node.CharacterLengths)-lastWordStart)
					lastWordStart = len(node.CharacterLengths)
				}
				node.CharacterLengths = append(node.CharacterLengths, c.Range.Len())
				node.CharacterPositions = append(node.CharacterPositions, clusterOffset)
				node.CharacterWidths = append(node.CharacterWidths, c.Advance)
				clusterOffset += c.Advance
			}
			node.WordLengths = append(node.WordLengths, len(node.CharacterLengths)-lastWordStart)

			if logicalIdx > 0 {
				prev := &nodes[len(nodes)-1]
				prev.NextOnLine = id
				node.PreviousOnLine = prev.ID
			}
			nodes = append(nodes, node)
		}
	}

	for id, path := range a.pathByID {
		if !seen[id] {
			delete(a.pathByID, id)
			delete(a.idByPath, path)
		}
	}
	return nodes
}
