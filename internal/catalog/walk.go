package catalog

// Walk visits every expanded category reachable from roots once, in
// breadth-first order. Placeholders are not visited. Walk stops at the first
// error fn returns.
func Walk(roots []*Category, fn func(*Category) error) error {
	seen := make(map[*Category]struct{})
	queue := make([]*Category, 0, len(roots))
	for _, root := range roots {
		if root != nil {
			queue = append(queue, root)
		}
	}
	for len(queue) > 0 {
		cat := queue[0]
		queue = queue[1:]
		if _, ok := seen[cat]; ok || !cat.Expanded {
			continue
		}
		seen[cat] = struct{}{}
		if err := fn(cat); err != nil {
			return err
		}
		queue = append(queue, cat.Subcategories()...)
	}
	return nil
}

// Find returns the expanded category with the given key.
func Find(roots []*Category, key string) (*Category, bool) {
	var found *Category
	_ = Walk(roots, func(c *Category) error {
		if c.Key == key {
			found = c
			return errStopWalk
		}
		return nil
	})
	return found, found != nil
}

// Expanded indexes every expanded category by key.
func Expanded(roots []*Category) map[string]*Category {
	out := make(map[string]*Category)
	_ = Walk(roots, func(c *Category) error {
		out[c.Key] = c
		return nil
	})
	return out
}

// AllMedia returns every media item under the expanded categories,
// deduplicated by filename and in walk order.
func AllMedia(roots []*Category) []*Media {
	var out []*Media
	seen := make(map[string]struct{})
	_ = Walk(roots, func(c *Category) error {
		for _, m := range c.Media() {
			name := m.Filename()
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, m)
		}
		return nil
	})
	return out
}

type stopWalk struct{}

func (stopWalk) Error() string { return "stop walk" }

var errStopWalk error = stopWalk{}
