package glyphflow

import "golang.org/x/image/math/fixed"

// AlignmentWidth computes the default alignment width Align uses when
// the caller has no explicit measure to align against: the widest
// line's advance, following parley::layout::alignment::align's
// max_line_length fallback.
func AlignmentWidth(layout *Layout) fixed.Int26_6 {
	var max fixed.Int26_6
	for _, line := range layout.Lines {
		if line.Metrics.Advance > max {
			max = line.Metrics.Advance
		}
	}
	return max
}

// Align distributes each line's free space (alignWidth minus the
// line's visible advance) per alignment, following
// parley::layout::alignment::align. Start leaves lines where they lay;
// End and Middle set Line.Metrics.Offset; Justify instead redistributes
// the free space across the line's space-or-nbsp clusters, applied
// directly to Cluster.Advance so downstream consumers (cursor
// positioning, hit testing, rendering) see the adjusted widths without
// special cases. Alignment only ever applies when free space is
// positive; an overflowing line is left alone regardless of mode.
//
// Justify walks each line's text-run line items in their stored
// (logical) order, and within each run iterates its clusters forwards
// for an even bidi level and backwards for an odd one — matching the
// run's left-to-right visual presentation order, so within a run the
// visually leftmost space is visited first.
func Align(layout *Layout, alignment Alignment, alignWidth fixed.Int26_6) {
	for i := range layout.Lines {
		line := &layout.Lines[i]
		line.Alignment = alignment
		line.Metrics.Offset = 0

		freeSpace := alignWidth - line.Metrics.Advance + line.Metrics.TrailingWhitespace
		if freeSpace <= 0 {
			continue
		}

		switch alignment {
		case Start:
			// Nothing to do.
		case End:
			line.Metrics.Offset = freeSpace
		case Middle:
			line.Metrics.Offset = freeSpace / 2
		case Justify:
			if line.BreakReason == BreakNone || line.NumSpaces == 0 {
				continue
			}
			adjustment := freeSpace / fixed.Int26_6(line.NumSpaces)
			applied := 0
			forEachTextRunCluster(layout, *line, func(c *Cluster) bool {
				if applied == line.NumSpaces {
					return false
				}
				if c.Whitespace.IsSpaceOrNBSP() {
					c.Advance += adjustment
					applied++
				}
				return true
			})
		}
	}
}

// Unjustify reverses a prior Justify pass, restoring each justified
// line's clusters to their pre-justification advances. wrapWidth must be
// the alignWidth the lines were justified against (NewLayout uses the
// wrap measure when one is set, otherwise AlignmentWidth), following
// parley::layout::alignment::unjustify, which is part of resetting
// layout state in preparation for re-linebreaking.
func Unjustify(layout *Layout, wrapWidth fixed.Int26_6) {
	for _, line := range layout.Lines {
		if line.Alignment != Justify {
			continue
		}
		if line.BreakReason == BreakNone || line.NumSpaces == 0 {
			continue
		}
		extra := wrapWidth - line.Metrics.Advance + line.Metrics.TrailingWhitespace
		adjustment := extra / fixed.Int26_6(line.NumSpaces)
		applied := 0
		forEachTextRunCluster(layout, line, func(c *Cluster) bool {
			if applied == line.NumSpaces {
				return false
			}
			if c.Whitespace.IsSpaceOrNBSP() {
				c.Advance -= adjustment
				applied++
			}
			return true
		})
	}
}

// forEachTextRunCluster walks line's text-run line items in stored
// order, visiting each run's clusters in its visual presentation order
// (forward for an even bidi level, reverse for odd), invoking visit on
// each. visit returns false to stop the walk early (once the target
// count of adjustments has been applied).
func forEachTextRunCluster(layout *Layout, line Line, visit func(*Cluster) bool) {
	items := layout.LineItems[line.ItemRange.Offset : line.ItemRange.Offset+line.ItemRange.Count]
	for _, item := range items {
		if item.Kind != LineItemRun {
			continue
		}
		run := &layout.Runs[item.Index]
		clusters := layout.Clusters[run.ClusterRange.Offset : run.ClusterRange.Offset+run.ClusterRange.Count]
		if run.BidiLevel&1 != 0 {
			for i := len(clusters) - 1; i >= 0; i-- {
				if !visit(&clusters[i]) {
					return
				}
			}
		} else {
			for i := range clusters {
				if !visit(&clusters[i]) {
					return
				}
			}
		}
	}
}
