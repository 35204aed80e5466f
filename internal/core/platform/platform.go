// Package platform loads the bookmaker registry from the embedded platforms.yaml
// and resolves free-text tokens to canonical platforms
package platform

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"flexcode/internal/core/normalize"

	"gopkg.in/yaml.v3"
)

//go:embed platforms.yaml
var embedded []byte

// FuzzyMinLen is the shortest folded token considered for typo matching
const FuzzyMinLen = 5

// ID is the canonical platform identifier, e.g. STAKE or ONEXBET
type ID string

// Canonical identifiers referenced from code; the full set lives in platforms.yaml
const (
	Stake     ID = "STAKE"
	SportyBet ID = "SPORTYBET"
	Bet9ja    ID = "BET9JA"
	OneXBet   ID = "ONEXBET"
	Betway    ID = "BETWAY"
	BetKing   ID = "BETKING"
)

// Platform is immutable once the registry is built
type Platform struct {
	ID      ID
	Name    string   // display name used in replies
	Slug    string   // identifier sent to the conversion service
	Aliases []string // ordered as declared
}

// IsZero reports whether p is the absent platform
func (p Platform) IsZero() bool { return p.ID == "" }

type rawPlatform struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Slug    string   `yaml:"slug"`
	Aliases []string `yaml:"aliases"`
}

type rawFile struct {
	Version    int           `yaml:"version"`
	Platforms  []rawPlatform `yaml:"platforms"`
	NeverFuzzy []string      `yaml:"never_fuzzy"`
}

// Registry maps folded aliases to platforms. Safe for concurrent reads
type Registry struct {
	platforms []Platform
	byID      map[ID]int
	exact     map[string]ID // compact alias -> id
	fuzzyKeys []string      // compact aliases long enough for typo matching, sorted
	never     map[string]struct{}
	maxWords  int
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the registry built from the embedded file. It panics if the
// embedded file is invalid, which only a bad build can cause
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg, defaultErr = Load() })
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultReg
}

// Load returns the registry from the embedded platforms.yaml
func Load() (*Registry, error) {
	return build(embedded, nil)
}

// LoadWithOverrides layers the YAML file at path over the embedded registry.
// Known ids gain aliases (and a new name or slug when set); unknown ids are appended
func LoadWithOverrides(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Load()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("platform: read overrides: %w", err)
	}
	return build(embedded, b)
}

func build(base, overlay []byte) (*Registry, error) {
	var rf rawFile
	if err := yaml.Unmarshal(base, &rf); err != nil {
		return nil, fmt.Errorf("platform: parse platforms.yaml: %w", err)
	}
	if rf.Version != 1 {
		return nil, fmt.Errorf("platform: unsupported platforms.yaml version %d (want 1)", rf.Version)
	}
	if overlay != nil {
		var ov rawFile
		if err := yaml.Unmarshal(overlay, &ov); err != nil {
			return nil, fmt.Errorf("platform: parse overrides: %w", err)
		}
		rf = merge(rf, ov)
	}

	r := &Registry{
		byID:     make(map[ID]int, len(rf.Platforms)),
		exact:    make(map[string]ID, 64),
		never:    make(map[string]struct{}, len(rf.NeverFuzzy)),
		maxWords: 1,
	}
	for _, rp := range rf.Platforms {
		id := ID(strings.ToUpper(strings.TrimSpace(rp.ID)))
		if id == "" {
			return nil, fmt.Errorf("platform: entry with empty id")
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("platform: duplicate id %s", id)
		}
		p := Platform{ID: id, Name: rp.Name, Slug: rp.Slug}
		if p.Name == "" {
			p.Name = string(id)
		}
		if p.Slug == "" {
			p.Slug = strings.ToLower(string(id))
		}
		for _, a := range rp.Aliases {
			folded := normalize.Fold(a)
			if folded == "" {
				continue
			}
			key := strings.ReplaceAll(folded, " ", "")
			if other, ok := r.exact[key]; ok && other != id {
				return nil, fmt.Errorf("platform: alias %q maps to both %s and %s", a, other, id)
			}
			r.exact[key] = id
			p.Aliases = append(p.Aliases, folded)
			if n := len(strings.Fields(folded)); n > r.maxWords {
				r.maxWords = n
			}
		}
		if len(p.Aliases) == 0 {
			return nil, fmt.Errorf("platform: %s has no aliases", id)
		}
		r.byID[id] = len(r.platforms)
		r.platforms = append(r.platforms, p)
	}
	for _, w := range rf.NeverFuzzy {
		if k := normalize.Compact(w); k != "" {
			r.never[k] = struct{}{}
		}
	}
	for k := range r.exact {
		if len(k) >= FuzzyMinLen {
			r.fuzzyKeys = append(r.fuzzyKeys, k)
		}
	}
	// deterministic iteration for fuzzy matching
	sort.Strings(r.fuzzyKeys)
	return r, nil
}

func merge(base, ov rawFile) rawFile {
	idx := make(map[string]int, len(base.Platforms))
	for i, p := range base.Platforms {
		idx[strings.ToUpper(strings.TrimSpace(p.ID))] = i
	}
	for _, p := range ov.Platforms {
		i, ok := idx[strings.ToUpper(strings.TrimSpace(p.ID))]
		if !ok {
			base.Platforms = append(base.Platforms, p)
			continue
		}
		cur := &base.Platforms[i]
		if p.Name != "" {
			cur.Name = p.Name
		}
		if p.Slug != "" {
			cur.Slug = p.Slug
		}
		cur.Aliases = append(cur.Aliases, p.Aliases...)
	}
	base.NeverFuzzy = append(base.NeverFuzzy, ov.NeverFuzzy...)
	return base
}

// All returns the platforms in declaration order
func (r *Registry) All() []Platform {
	out := make([]Platform, len(r.platforms))
	copy(out, r.platforms)
	return out
}

// Get returns the platform with the given id
func (r *Registry) Get(id ID) (Platform, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Platform{}, false
	}
	return r.platforms[i], true
}

// MaxAliasWords is the word count of the longest alias, used to bound
// longest-match scans
func (r *Registry) MaxAliasWords() int { return r.maxWords }

// ResolveExact matches token against aliases after folding; no typo tolerance
func (r *Registry) ResolveExact(token string) (Platform, bool) {
	id, ok := r.exact[normalize.Compact(token)]
	if !ok {
		return Platform{}, false
	}
	return r.Get(id)
}

// Resolve matches token exactly, then within one edit of an alias when the
// folded token has at least FuzzyMinLen characters. A typo that sits one edit
// away from aliases of two different platforms resolves to nothing
func (r *Registry) Resolve(token string) (Platform, bool) {
	key := normalize.Compact(token)
	if key == "" {
		return Platform{}, false
	}
	if id, ok := r.exact[key]; ok {
		return r.Get(id)
	}
	if len([]rune(key)) < FuzzyMinLen {
		return Platform{}, false
	}
	if _, blocked := r.never[key]; blocked {
		return Platform{}, false
	}
	var found ID
	for _, k := range r.fuzzyKeys {
		if !withinOneEdit(key, k) {
			continue
		}
		id := r.exact[k]
		if found != "" && found != id {
			return Platform{}, false
		}
		found = id
	}
	if found == "" {
		return Platform{}, false
	}
	return r.Get(found)
}

// withinOneEdit reports whether a and b are at Levenshtein distance <= 1
func withinOneEdit(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(ra)-len(rb) > 1 {
		return false
	}
	i, j, edits := 0, 0, 0
	for i < len(ra) && j < len(rb) {
		if ra[i] == rb[j] {
			i++
			j++
			continue
		}
		edits++
		if edits > 1 {
			return false
		}
		if len(ra) == len(rb) {
			j++ // substitution
		}
		i++ // deletion from the longer side
	}
	edits += (len(ra) - i) + (len(rb) - j)
	return edits <= 1
}
