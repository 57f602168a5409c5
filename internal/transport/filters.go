package transport

import "github.com/muurk/canfix/internal/protocol"

// FrameFilter reports whether a frame is of interest
type FrameFilter func(protocol.Frame) bool

// ByRange matches frames whose ID is within [minID, maxID], inclusive.
func ByRange(minID, maxID uint16) FrameFilter {
	if maxID < minID {
		minID, maxID = maxID, minID
	}
	return func(f protocol.Frame) bool { return f.ID >= minID && f.ID <= maxID }
}

// ByCategory matches frames whose identifier falls in any of the categories.
func ByCategory(cats ...protocol.Category) FrameFilter {
	var set [8]bool
	for _, c := range cats {
		if int(c) < len(set) {
			set[c] = true
		}
	}
	return func(f protocol.Frame) bool {
		c := protocol.Classify(f.ID)
		return int(c) < len(set) && set[c]
	}
}

// ByNode matches node specific frames sent from or addressed to node.
func ByNode(node byte) FrameFilter {
	return func(f protocol.Frame) bool {
		if protocol.Classify(f.ID) != protocol.CategoryNodeSpecific {
			return false
		}
		return protocol.SubAddress(f.ID) == node || f.Byte(1) == node
	}
}

// And composes two filters; the result matches when both match.
func And(a, b FrameFilter) FrameFilter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return func(f protocol.Frame) bool { return a(f) && b(f) }
	}
}

// Or composes two filters; the result matches when either matches.
func Or(a, b FrameFilter) FrameFilter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return func(f protocol.Frame) bool { return a(f) || b(f) }
	}
}

// Not inverts a filter. A nil filter matches everything, so Not(nil) matches
// nothing.
func Not(a FrameFilter) FrameFilter {
	if a == nil {
		return func(protocol.Frame) bool { return false }
	}
	return func(f protocol.Frame) bool { return !a(f) }
}
