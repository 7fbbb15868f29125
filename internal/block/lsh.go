package block

import (
	"encoding/binary"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/matsen/refdedupe/internal/canonical"
)

// Params configures the MinHash/LSH blocker. The invariant B*R == H is
// enforced by Validate, not here, so a misconfigured pipeline fails fast
// in internal/config rather than silently truncating bands.
type Params struct {
	K    int    // shingle size, characters
	H    int    // number of MinHash permutations
	B    int    // number of LSH bands
	R    int    // rows per band
	Seed uint64
}

// DefaultParams is the blocker's default configuration.
var DefaultParams = Params{K: 5, H: 128, B: 16, R: 8, Seed: 0x5EED}

// Validate checks the B*R == H invariant a caller should surface as a
// ConfigurationError.
func (p Params) Validate() error {
	if p.B*p.R != p.H {
		return fmt.Errorf("lsh_params: b*r (%d*%d=%d) != H (%d)", p.B, p.R, p.B*p.R, p.H)
	}
	if p.K <= 0 || p.H <= 0 || p.B <= 0 || p.R <= 0 {
		return fmt.Errorf("lsh_params: k, H, b, r must all be positive")
	}
	return nil
}

// shingles returns every distinct k-character substring of s. Shorter-
// than-k strings yield a single shingle covering the whole string, so
// very short titles still participate in LSH rather than contributing no
// signature at all.
func shingles(s string, k int) map[string]bool {
	set := make(map[string]bool)
	if s == "" {
		return set
	}
	runes := []rune(s)
	if len(runes) <= k {
		set[string(runes)] = true
		return set
	}
	for i := 0; i+k <= len(runes); i++ {
		set[string(runes[i:i+k])] = true
	}
	return set
}

// permHash deterministically hashes a shingle under permutation index i of
// the configured seed, via blake2b keyed on (seed, i) as a fixed 16-byte
// prefix.
func permHash(seed uint64, i int, shingle string) uint64 {
	prefix := make([]byte, 16)
	binary.LittleEndian.PutUint64(prefix[0:8], seed)
	binary.LittleEndian.PutUint64(prefix[8:16], uint64(i))

	data := make([]byte, 0, 16+len(shingle))
	data = append(data, prefix...)
	data = append(data, shingle...)

	sum := blake2b.Sum256(data)
	return binary.LittleEndian.Uint64(sum[:8])
}

// signature computes the H-element MinHash signature of a shingle set.
func signature(shingleSet map[string]bool, params Params) []uint64 {
	sig := make([]uint64, params.H)
	for i := range sig {
		sig[i] = ^uint64(0)
	}

	shingleList := make([]string, 0, len(shingleSet))
	for s := range shingleSet {
		shingleList = append(shingleList, s)
	}
	sort.Strings(shingleList) // deterministic iteration order

	for i := 0; i < params.H; i++ {
		for _, s := range shingleList {
			h := permHash(params.Seed, i, s)
			if h < sig[i] {
				sig[i] = h
			}
		}
	}
	return sig
}

// bandKey hashes one band's R signature rows into a single comparable key,
// salted with the band index so identical row values in different bands
// never collide with each other.
func bandKey(sig []uint64, band, rows int) uint64 {
	data := make([]byte, 8+rows*8)
	binary.LittleEndian.PutUint64(data[0:8], uint64(band))
	for i := 0; i < rows; i++ {
		binary.LittleEndian.PutUint64(data[8+i*8:16+i*8], sig[band*rows+i])
	}
	sum := blake2b.Sum256(data)
	return binary.LittleEndian.Uint64(sum[:8])
}

// lshText is the shingled surface: title and venue concatenated.
func lshText(r canonical.Record) string {
	if r.Venue == "" {
		return r.Title
	}
	return r.Title + " " + r.Venue
}

// LSHBlocker groups records whose banded MinHash signatures collide in at
// least one band. Records with no title and no venue produce an empty
// shingle set and are skipped — a record with nothing to shingle cannot
// meaningfully collide with anything.
func LSHBlocker(records []canonical.Record, params Params) []Pair {
	bandBuckets := make(map[string][]string) // "band:key" -> sorted record ids
	var order []string

	for _, r := range records {
		text := lshText(r)
		if text == "" {
			continue
		}
		sig := signature(shingles(text, params.K), params)
		for b := 0; b < params.B; b++ {
			key := fmt.Sprintf("%d:%d", b, bandKey(sig, b, params.R))
			if _, seen := bandBuckets[key]; !seen {
				order = append(order, key)
			}
			bandBuckets[key] = append(bandBuckets[key], r.ID)
		}
	}

	seenPair := make(map[[2]string]bool)
	var pairs []Pair
	for _, key := range order {
		ids := bandBuckets[key]
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				k := [2]string{ids[i], ids[j]}
				if seenPair[k] {
					continue
				}
				seenPair[k] = true
				pairs = append(pairs, NewPair(ids[i], ids[j], TagLSH))
			}
		}
	}
	return pairs
}
