package catalog

// pending pairs a key with the node its fetch will fill.
type pending struct {
	key  string
	node *Category
}

// workQueue is a FIFO of keys awaiting expansion. seen holds every key ever
// pushed, so a key is fetched at most once per crawl.
type workQueue struct {
	items []pending
	seen  map[string]struct{}
}

func newWorkQueue() *workQueue {
	return &workQueue{seen: make(map[string]struct{})}
}

// push enqueues key unless it was queued before. It reports whether the key
// was added.
func (q *workQueue) push(key string, node *Category) bool {
	if q.has(key) {
		return false
	}
	q.seen[key] = struct{}{}
	q.items = append(q.items, pending{key: key, node: node})
	return true
}

func (q *workQueue) pop() (pending, bool) {
	if len(q.items) == 0 {
		return pending{}, false
	}
	next := q.items[0]
	q.items[0] = pending{}
	q.items = q.items[1:]
	return next, true
}

// has reports whether key was ever pushed.
func (q *workQueue) has(key string) bool {
	_, ok := q.seen[key]
	return ok
}

func (q *workQueue) len() int {
	return len(q.items)
}
