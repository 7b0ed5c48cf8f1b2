package transcoder

import (
	"sync"

	"github.com/wippyai/avro-xform/transcoder/internal/bitset"
)

const (
	// Pool limits to prevent memory bloat
	poolMaxBits  = 1 << 16
	poolInitBits = 256
)

// presence bitmap pool shared by builders
var bitmapPool = sync.Pool{
	New: func() any {
		return bitset.New(poolInitBits)
	},
}

func getBitmap() *bitset.Bitmap {
	b := bitmapPool.Get().(*bitset.Bitmap)
	b.Reset()
	return b
}

func putBitmap(b *bitset.Bitmap) {
	if b == nil || b.Cap() > poolMaxBits {
		return // reject oversized
	}
	bitmapPool.Put(b)
}
