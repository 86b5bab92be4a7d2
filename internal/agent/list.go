package agent

import (
	"bytes"
	"encoding/json"
)

// listBaseSize covers the enclosing braces of the listing.
const listBaseSize = 16

// Rendered widths of each listed value, quotes included for strings.
const (
	macValueWidth         = MACMaxLength + 2
	nameValueWidth        = NameMaxLength + 2
	ipValueWidth          = IPMaxLength + 2
	boolValueWidth        = len("false")
	uiClassNameValueWidth = UIClassNameMaxLength + 2
	heapValueWidth        = len("-2147483648")
)

// objectSlotSize is the per-member cost of a parsed object on a 32-bit target.
const objectSlotSize = 16

// listEntry is the rendering of one agent in the listing.
type listEntry struct {
	Name        string  `json:"name"`
	IP          string  `json:"ip"`
	CanSleep    bool    `json:"canSleep"`
	Pong        bool    `json:"pong"`
	UIClassName string  `json:"uiClassName"`
	Heap        int32   `json:"heap"`
	Custom      *string `json:"custom,omitempty"`
}

// List renders every agent as a JSON object keyed by MAC, in MAC order.
// An empty registry renders as "{}". Output is never truncated.
func (r *Registry) List() []byte {
	r.mu.RLock()
	if len(r.agents) == 0 {
		r.mu.RUnlock()
		return []byte("{}")
	}

	entries := make(map[string]listEntry, len(r.agents))
	largestCustom := 0
	for mac, a := range r.agents {
		entries[mac] = listEntry{
			Name:        a.Name,
			IP:          a.IP,
			CanSleep:    a.CanSleep,
			Pong:        a.Pong,
			UIClassName: a.UIClassName,
			Heap:        a.Heap,
			Custom:      a.Custom,
		}
		if a.Custom != nil && len(*a.Custom) > largestCustom {
			largestCustom = len(*a.Custom)
		}
	}
	hint := r.listSize
	r.mu.RUnlock()

	var buf bytes.Buffer
	buf.Grow(hint + largestCustom)

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Map keys are sorted by the encoder, and every field is encodable.
	if err := enc.Encode(entries); err != nil {
		r.logger.Error("failed to render agent list", "error", err)
		return []byte("{}")
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// ListSizeHint returns the estimated rendering size of List, excluding custom payloads.
func (r *Registry) ListSizeHint() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listSize
}

// ParseTreeSize returns the memory a constrained client needs to parse
// the listing: one ten-member object per agent inside the outer object.
func (r *Registry) ParseTreeSize() int {
	n := r.Count()
	return n*objectSize(10) + objectSize(n)
}

// refreshListSize recomputes the cached size hint. Callers hold r.mu.
func (r *Registry) refreshListSize() {
	n := len(r.agents)
	size := listBaseSize
	size += attributeSize(n, tagMAC, macValueWidth)
	size += attributeSize(n, tagName, nameValueWidth)
	size += attributeSize(n, tagIP, ipValueWidth)
	size += attributeSize(n, tagCanSleep, boolValueWidth)
	size += attributeSize(n, tagPong, boolValueWidth)
	size += attributeSize(n, tagUIClassName, uiClassNameValueWidth)
	size += attributeSize(n, tagHeap, heapValueWidth)
	r.listSize = size
}

// attributeSize estimates n renderings of "attr":value plus separators.
func attributeSize(n int, attr string, valueWidth int) int {
	return n * (valueWidth + len(attr) + 4)
}

func objectSize(members int) int {
	return members * objectSlotSize
}
