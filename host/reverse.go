package host

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Reverser keeps track of named patterns and allows building URLs.
type Reverser struct {
	pats map[string][]string
}

// NewReverser inits the reverser.
func NewReverser() *Reverser {
	return &Reverser{make(map[string][]string)}
}

// Reverse reverses the named pattern into a url.
func (r Reverser) Reverse(name string, vals ...string) (string, error) {
	segs, ok := r.pats[name]
	if !ok {
		return "", errors.Errorf("no pattern named: %q, got: %v", name, lo.Keys(r.pats))
	}

	out := make([]string, len(segs))
	for i, seg := range segs {
		if !isWildcard(seg) {
			out[i] = seg
			continue
		}

		if len(vals) == 0 {
			return "", errors.Errorf("not enough values to build %q", name)
		}

		out[i], vals = vals[0], vals[1:]
	}

	if len(vals) > 0 {
		return "", errors.Errorf("too many values to build %q", name)
	}

	return strings.Join(out, "/"), nil
}

// Named records the pattern under name and panics when the name is taken.
func (r Reverser) Named(name, pattern string) string {
	if _, exists := r.pats[name]; exists {
		panic("host: pattern with name " + name + " already exists")
	}

	path := pattern
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		path = strings.TrimSpace(pattern[i+1:])
	}

	path = strings.TrimSuffix(path, "{$}")
	r.pats[name] = strings.Split(path, "/")
	return pattern
}

func isWildcard(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}
