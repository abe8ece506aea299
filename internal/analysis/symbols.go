package analysis

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ianlancetaylor/demangle"

	"mipsdis/internal/elfx"
)

// symbolCache memoises demangling across listings.
type symbolCache struct {
	mu                sync.RWMutex
	demangleCache     map[string]string
	demangledHitCount map[string]int
	cacheEnabled      bool
}

var cache = &symbolCache{
	demangleCache:     make(map[string]string),
	demangledHitCount: make(map[string]int),
	cacheEnabled:      true,
}

// SetDemangleCache turns the demangle cache on or off. Disabling it also
// drops the cached entries.
func SetDemangleCache(enabled bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.cacheEnabled = enabled
	if !enabled {
		cache.demangleCache = make(map[string]string)
		cache.demangledHitCount = make(map[string]int)
	}
}

// CachedDemangle performs demangling with caching support.
func CachedDemangle(mangled string) string {
	cache.mu.RLock()
	if !cache.cacheEnabled {
		cache.mu.RUnlock()
		return demangle.Filter(mangled, demangle.NoClones)
	}
	_, exists := cache.demangleCache[mangled]
	cache.mu.RUnlock()

	if exists {
		// The hit counter is a write, so it needs the exclusive lock.
		cache.mu.Lock()
		cache.demangledHitCount[mangled]++
		d := cache.demangleCache[mangled]
		cache.mu.Unlock()
		return d
	}

	demangled := demangle.Filter(mangled, demangle.NoClones)

	cache.mu.Lock()
	cache.demangleCache[mangled] = demangled
	cache.demangledHitCount[mangled] = 1
	cache.mu.Unlock()
	return demangled
}

// GetDemangleCacheStats returns statistics about the demangle cache.
func GetDemangleCacheStats() (totalSymbols int, cacheHits int, topSymbols []string) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	totalHits := 0
	type symbolHit struct {
		symbol string
		count  int
	}
	symbols := make([]symbolHit, 0, len(cache.demangledHitCount))
	for sym, count := range cache.demangledHitCount {
		totalHits += count
		symbols = append(symbols, symbolHit{sym, count})
	}
	sort.Slice(symbols, func(i, j int) bool {
		if symbols[i].count != symbols[j].count {
			return symbols[i].count > symbols[j].count
		}
		return symbols[i].symbol < symbols[j].symbol
	})

	var top []string
	for i := 0; i < 5 && i < len(symbols); i++ {
		top = append(top, fmt.Sprintf("%s (%d hits)", symbols[i].symbol, symbols[i].count))
	}

	return len(cache.demangleCache), totalHits - len(cache.demangleCache), top
}

// SymbolTable answers address to symbol queries for a listing.
type SymbolTable struct {
	syms   []elfx.Symbol // sorted by address
	byAddr map[uint64]int
}

// NewSymbolTable builds a table from symbols. Duplicate addresses keep the
// first function symbol seen, then the first named one.
func NewSymbolTable(syms ...[]elfx.Symbol) *SymbolTable {
	st := &SymbolTable{byAddr: make(map[uint64]int)}
	for _, tab := range syms {
		for _, s := range tab {
			if s.Name == "" || strings.HasPrefix(s.Name, "$") {
				continue
			}
			if i, ok := st.byAddr[s.Addr]; ok {
				if s.Func && !st.syms[i].Func {
					st.syms[i] = s
				}
				continue
			}
			st.byAddr[s.Addr] = len(st.syms)
			st.syms = append(st.syms, s)
		}
	}
	sort.SliceStable(st.syms, func(i, j int) bool { return st.syms[i].Addr < st.syms[j].Addr })
	for i, s := range st.syms {
		st.byAddr[s.Addr] = i
	}
	return st
}

// SymbolsOf builds a table from both symbol tables of an image.
func SymbolsOf(im *elfx.Image) *SymbolTable {
	return NewSymbolTable(im.Syms, im.Dynsyms)
}

// Len returns the number of distinct symbols.
func (st *SymbolTable) Len() int {
	if st == nil {
		return 0
	}
	return len(st.syms)
}

// All returns the symbols in address order.
func (st *SymbolTable) All() []elfx.Symbol {
	if st == nil {
		return nil
	}
	return st.syms
}

// At returns the symbol starting exactly at va.
func (st *SymbolTable) At(va uint64) (elfx.Symbol, bool) {
	if st == nil {
		return elfx.Symbol{}, false
	}
	i, ok := st.byAddr[va]
	if !ok {
		return elfx.Symbol{}, false
	}
	return st.syms[i], true
}

// Containing returns the closest symbol at or below va and the offset of va
// into it. Sized symbols match inside their extent, unsized ones only at
// their own address.
func (st *SymbolTable) Containing(va uint64) (elfx.Symbol, uint64, bool) {
	if st == nil || len(st.syms) == 0 {
		return elfx.Symbol{}, 0, false
	}
	i := sort.Search(len(st.syms), func(i int) bool { return st.syms[i].Addr > va }) - 1
	if i < 0 {
		return elfx.Symbol{}, 0, false
	}
	s := st.syms[i]
	off := va - s.Addr
	if (s.Size == 0 && off != 0) || (s.Size != 0 && off >= s.Size) {
		return elfx.Symbol{}, 0, false
	}
	return s, off, true
}

// Symbolize renders va as name or name+0xoff.
func (st *SymbolTable) Symbolize(va uint64) (string, bool) {
	s, off, ok := st.Containing(va)
	if !ok {
		return "", false
	}
	name := CachedDemangle(s.Name)
	if off == 0 {
		return name, true
	}
	return fmt.Sprintf("%s+0x%x", name, off), true
}

// Lookup finds a function by raw or demangled name.
func (st *SymbolTable) Lookup(name string) (elfx.Symbol, bool) {
	if st == nil {
		return elfx.Symbol{}, false
	}
	for _, s := range st.syms {
		if s.Name == name {
			return s, true
		}
	}
	for _, s := range st.syms {
		if s.Func && CachedDemangle(s.Name) == name {
			return s, true
		}
	}
	return elfx.Symbol{}, false
}
