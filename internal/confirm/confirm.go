// Package confirm gates destructive actions behind a second press.
package confirm

import "time"

// DefaultWindow is how long an armed action waits for its second press.
const DefaultWindow = 3 * time.Second

// Gate remembers at most one armed action. The first Press of a key arms
// it; a second Press of the same key inside the window fires it. Pressing
// a different key moves the arm there. A Gate is not safe for concurrent
// use; keep it on the goroutine that handles input.
type Gate struct {
	Window time.Duration

	key string
	at  time.Time
}

// Press reports whether the action named key should run now.
func (g *Gate) Press(key string, now time.Time) bool {
	if g.Armed(key, now) {
		g.Reset()
		return true
	}
	g.key, g.at = key, now
	return false
}

// Armed reports whether key is waiting for its confirming press.
func (g *Gate) Armed(key string, now time.Time) bool {
	return key != "" && key == g.key && now.Sub(g.at) < g.window()
}

// Expiry is when the current arm lapses, or the zero time if nothing is armed.
func (g *Gate) Expiry() time.Time {
	if g.key == "" {
		return time.Time{}
	}
	return g.at.Add(g.window())
}

func (g *Gate) Reset() {
	g.key = ""
	g.at = time.Time{}
}

func (g *Gate) window() time.Duration {
	if g.Window <= 0 {
		return DefaultWindow
	}
	return g.Window
}
