package filtercache

// TryMergeBoth attempts to fold a session's forward and backward maps
// back into the process-wide global pair. Per §4.3 it never blocks: if
// either global map is already locked for writing by another request,
// the session's results are simply discarded — they'll be recomputed on
// the next run, because the cache is a hint, not a ledger. A failed
// merge here is never surfaced to the caller as an error.
func TryMergeBoth(globalForward, globalBackward, sessionForward, sessionBackward *Cache) (merged bool) {
	if !globalBackward.mu.TryLock() {
		return false
	}
	defer globalBackward.mu.Unlock()

	if !globalForward.mu.TryLock() {
		return false
	}
	defer globalForward.mu.Unlock()

	mergeLocked(globalBackward, sessionBackward)
	mergeLocked(globalForward, sessionForward)
	return true
}

// mergeLocked is Merge's body with the receiver's write lock already
// held by the caller (TryMergeBoth took it via TryLock, not Lock).
func mergeLocked(c *Cache, other *Cache) {
	other.mu.RLock()
	defer other.mu.RUnlock()
	for spec, om := range other.maps {
		m, ok := c.maps[spec]
		if !ok {
			m = make(oidMap, len(om))
			c.maps[spec] = m
		}
		for k, v := range om {
			if _, exists := m[k]; !exists {
				m[k] = v
			}
		}
	}
}
