package bitset

import "math/bits"

// MaxBits bounds the size a Bitmap may grow to.
const MaxBits = 1 << 24

// Bitmap is a growable bit vector used as a stack of claimed ranges.
// It is addressed only by index: growth reallocates the backing words,
// so callers keep offsets, never slices of it.
type Bitmap struct {
	words []uint64
	top   int
}

// New creates a Bitmap with room for n bits before it needs to grow.
func New(n int) *Bitmap {
	return &Bitmap{words: make([]uint64, (n+63)/64)}
}

// Top returns the high-water mark: the first unclaimed bit.
func (b *Bitmap) Top() int {
	return b.top
}

// Claim reserves n cleared bits above the high-water mark and returns
// the offset of the first one. It fails when the bitmap would exceed MaxBits.
func (b *Bitmap) Claim(n int) (int, bool) {
	base := b.top
	end := base + n
	if n < 0 || end > MaxBits {
		return 0, false
	}
	if words := (end + 63) / 64; words > len(b.words) {
		b.grow(words)
	}
	b.clearRange(base, end)
	b.top = end
	return base, true
}

// Release lowers the high-water mark back to base, dropping every range
// claimed since.
func (b *Bitmap) Release(base int) {
	if base < b.top {
		b.top = base
	}
}

// Set marks bit i. i must lie below the high-water mark.
func (b *Bitmap) Set(i int) {
	b.words[i/64] |= 1 << (uint(i) % 64)
}

// Has reports whether bit i is marked.
func (b *Bitmap) Has(i int) bool {
	w := i / 64
	if w >= len(b.words) {
		return false
	}
	return b.words[w]&(1<<(uint(i)%64)) != 0
}

// TestAndSet marks bit i and reports whether it was already marked.
func (b *Bitmap) TestAndSet(i int) bool {
	w, mask := i/64, uint64(1)<<(uint(i)%64)
	was := b.words[w]&mask != 0
	b.words[w] |= mask
	return was
}

// Any reports whether a bit in [lo, hi) is marked.
func (b *Bitmap) Any(lo, hi int) bool {
	_, ok := b.Next(lo, hi)
	return ok
}

// Next returns the lowest marked bit in [from, hi).
func (b *Bitmap) Next(from, hi int) (int, bool) {
	if from >= hi {
		return 0, false
	}
	w := from / 64
	word := b.words[w] &^ (1<<(uint(from)%64) - 1)
	last := (hi - 1) / 64
	for {
		if word != 0 {
			i := w*64 + bits.TrailingZeros64(word)
			if i >= hi {
				return 0, false
			}
			return i, true
		}
		w++
		if w > last {
			return 0, false
		}
		word = b.words[w]
	}
}

// Scan calls fn for every marked bit in [lo, hi) in ascending order,
// one 64-bit word at a time. It stops at the first error.
func (b *Bitmap) Scan(lo, hi int, fn func(i int) error) error {
	if lo >= hi {
		return nil
	}
	first, last := lo/64, (hi-1)/64
	for w := first; w <= last; w++ {
		word := b.words[w]
		if w == first {
			word &^= 1<<(uint(lo)%64) - 1
		}
		if w == last && hi%64 != 0 {
			word &= 1<<(uint(hi)%64) - 1
		}
		for word != 0 {
			i := w*64 + bits.TrailingZeros64(word)
			word &= word - 1
			if err := fn(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reset releases every claim.
func (b *Bitmap) Reset() {
	b.top = 0
}

// Cap returns the number of bits the backing words hold.
func (b *Bitmap) Cap() int {
	return len(b.words) * 64
}

func (b *Bitmap) clearRange(lo, hi int) {
	for i := lo; i < hi; {
		if i%64 == 0 && hi-i >= 64 {
			b.words[i/64] = 0
			i += 64
			continue
		}
		b.words[i/64] &^= 1 << (uint(i) % 64)
		i++
	}
}

// grow expands the bitmap to n words.
// Callers guarantee n > len(b.words).
func (b *Bitmap) grow(n int) {
	if c := 2 * len(b.words); c > n {
		n = c
	}
	words := make([]uint64, n)
	copy(words, b.words)
	b.words = words
}
