package analyzer

import (
	"encoding/binary"
	"fmt"
	"regexp"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/mcncl/jsonsieve/internal/models"
	"github.com/mcncl/jsonsieve/internal/stack"
)

// Patterns for strings and numbers worth calling out in a summary
var (
	// 2006-01-02T15:04:05Z
	rfc3339Regex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)

	// Unix timestamp in milliseconds
	unixMilliRegex = regexp.MustCompile(`^1[0-9]{12}$`)
)

// Summary describes the shape of an extracted tree.
type Summary struct {
	Objects  int
	Arrays   int
	Strings  int
	Numbers  int
	Bools    int
	Nulls    int
	Members  int // object members across the tree
	MaxDepth int // 0 for a scalar root

	// UUIDs counts strings that parse as UUIDs, dashed or not.
	UUIDs int

	// Timestamps counts RFC 3339 strings and millisecond Unix times.
	Timestamps int

	// Digest is an xxhash64 over kinds, member names and scalar text in
	// document order. Equal trees built from the same input give equal digests.
	Digest uint64
}

// Values returns the total number of values in the tree.
func (s Summary) Values() int {
	return s.Objects + s.Arrays + s.Strings + s.Numbers + s.Bools + s.Nulls
}

// DigestHex renders the digest the way the CLI prints it.
func (s Summary) DigestHex() string {
	return fmt.Sprintf("%016x", s.Digest)
}

type item struct {
	v     models.Value
	depth int
	name  string
	named bool
}

// Analyze walks v once without recursion, so very deep trees are fine.
func Analyze(v models.Value) Summary {
	var (
		sum  Summary
		h    = xxhash.New()
		work = stack.NewWithCapacity[item](16)
		num  [8]byte
	)

	writeLen := func(tag byte, n int) {
		_, _ = h.Write([]byte{tag})
		binary.LittleEndian.PutUint64(num[:], uint64(n))
		_, _ = h.Write(num[:])
	}
	writeText := func(tag byte, s string) {
		writeLen(tag, len(s))
		_, _ = h.WriteString(s)
	}

	if v.IsAbsent() {
		return sum
	}

	work.Push(item{v: v})
	for !work.IsEmpty() {
		it, _ := work.Pop()
		if it.named {
			writeText('k', it.name)
		}

		switch it.v.Kind() {
		case models.KindObject:
			sum.Objects++
			sum.MaxDepth = max(sum.MaxDepth, it.depth+1)
			obj := it.v.Object()
			sum.Members += obj.Len()
			writeLen('o', obj.Len())

			// push in reverse so members come off in document order
			keys := obj.Keys()
			for i := len(keys) - 1; i >= 0; i-- {
				child, _ := obj.Get(keys[i])
				work.Push(item{v: child, depth: it.depth + 1, name: keys[i], named: true})
			}

		case models.KindArray:
			sum.Arrays++
			sum.MaxDepth = max(sum.MaxDepth, it.depth+1)
			items := it.v.Items()
			writeLen('a', len(items))
			for i := len(items) - 1; i >= 0; i-- {
				work.Push(item{v: items[i], depth: it.depth + 1})
			}

		case models.KindString:
			sum.Strings++
			s := it.v.Text()
			if looksLikeUUID(s) {
				sum.UUIDs++
			} else if rfc3339Regex.MatchString(s) {
				sum.Timestamps++
			}
			writeText('s', s)

		case models.KindNumber:
			sum.Numbers++
			if unixMilliRegex.MatchString(it.v.Text()) {
				sum.Timestamps++
			}
			writeText('n', it.v.Text())

		case models.KindBool:
			sum.Bools++
			if b, _ := it.v.AsBool(); b {
				_, _ = h.Write([]byte{'t'})
			} else {
				_, _ = h.Write([]byte{'f'})
			}

		case models.KindNull:
			sum.Nulls++
			_, _ = h.Write([]byte{'z'})
		}
	}

	sum.Digest = h.Sum64()
	return sum
}

// looksLikeUUID accepts the undashed and dashed spellings only. uuid.Parse
// also takes braced and urn forms, which do not appear as bare keys.
func looksLikeUUID(s string) bool {
	if len(s) != 32 && len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
