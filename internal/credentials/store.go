// Package credentials resolves named provider secrets from an ordered list
// of backing sources. Absence is a normal outcome, not an error: each
// component decides whether a missing key is fatal or triggers a fallback.
package credentials

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
)

// Fixed key names, one per provider.
const (
	KeyOpenAI     = "OPENAI_API_KEY"
	KeyPexels     = "PEXELS_API_KEY"
	KeyElevenLabs = "ELEVENLABS_API_KEY"
)

// Source is a single backing store of named secrets.
type Source interface {
	Lookup(name string) (string, bool)
}

// Static holds explicit in-memory values, typically taken from the loaded
// configuration. Empty values are treated as absent so resolution falls
// through to the next source.
type Static map[string]string

func (s Static) Lookup(name string) (string, bool) {
	v := strings.TrimSpace(s[name])
	return v, v != ""
}

// FileSource reads secrets from a flat JSON object file. The file is loaded
// once on first lookup; a missing or unreadable file behaves as empty.
type FileSource struct {
	path string

	once   sync.Once
	values map[string]string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Lookup(name string) (string, bool) {
	f.once.Do(f.load)
	v := strings.TrimSpace(f.values[name])
	return v, v != ""
}

func (f *FileSource) load() {
	f.values = map[string]string{}
	if f.path == "" {
		return
	}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, &f.values)
}

// Store resolves names against its sources in order, returning the first
// non-empty value.
type Store struct {
	sources []Source
}

func NewStore(sources ...Source) *Store {
	return &Store{sources: sources}
}

// Resolve returns the first non-empty value for name, or ok=false when no
// source carries it. It never errors and has no side effects.
func (s *Store) Resolve(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, src := range s.sources {
		if v, ok := src.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}
