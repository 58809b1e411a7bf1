package catalog

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Catalog is an immutable index over the model descriptors loaded at startup.
// It is safe for concurrent readers without locking.
type Catalog struct {
	byID   map[string]Descriptor
	live   []Descriptor
	static []Descriptor
}

// Resolve returns the descriptor for id, if any.
func (c *Catalog) Resolve(id string) (Descriptor, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Partition splits ids into resolvable and unresolvable ones, keeping the
// input order inside each group.
func (c *Catalog) Partition(ids []string) (valid, invalid []string) {
	valid = make([]string, 0, len(ids))
	invalid = make([]string, 0)
	for _, id := range ids {
		if _, ok := c.byID[id]; ok {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	return valid, invalid
}

// Filter returns descriptors of the given kind after skipping offset entries
// and keeping at most limit. limit <= 0 means DefaultLimit and is capped at
// MaxLimit; a negative offset is treated as zero.
func (c *Catalog) Filter(kind Kind, limit, offset int) []Descriptor {
	var src []Descriptor
	switch kind {
	case KindLive:
		src = c.live
	case KindStatic:
		src = c.static
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(src) {
		return []Descriptor{}
	}
	end := offset + limit
	if end > len(src) {
		end = len(src)
	}
	out := make([]Descriptor, end-offset)
	copy(out, src[offset:end])
	return out
}

// Len reports the number of descriptors per kind.
func (c *Catalog) Len(kind Kind) int {
	switch kind {
	case KindLive:
		return len(c.live)
	case KindStatic:
		return len(c.static)
	}
	return 0
}
