package kv

import "time"

// remotePollInterval bounds how often GetAndWait re-issues a remote Get
// while waiting on a key owned by another node. There is no way to have a
// remote node push a wakeup to us without a standing subscription, which
// the fabric's protocol does not offer, so this is a deliberate,
// short-interval fallback rather than the original's 1-second sleep loop.
const remotePollInterval = 50 * time.Millisecond

func pollTicker() *time.Ticker {
	return time.NewTicker(remotePollInterval)
}
