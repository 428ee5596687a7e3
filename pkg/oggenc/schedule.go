package oggenc

import "fmt"

// sliceFrames is the most frames handed to the analyzer per iteration.
const sliceFrames = 1024

// nextSlice returns how many frames to feed next out of remaining
// interleaved samples. A remainder shorter than one frame yields 0 and
// ends the feed loop.
func nextSlice(remaining, channels, ceiling int) int {
	if remaining <= 0 || channels < 1 {
		return 0
	}
	return min(remaining/channels, ceiling)
}

// deinterleave copies frames frames of interleaved src, starting at sample
// base, into the planes of dst: dst[c][j] = src[base+j*channels+c].
func deinterleave(dst [][]float32, src []float32, base, frames, channels int) {
	if channels < 1 || base < 0 || frames < 0 || base+frames*channels > len(src) {
		panic(fmt.Sprintf("oggenc: deinterleave %d frames x %d channels at %d out of %d samples",
			frames, channels, base, len(src)))
	}
	if len(dst) < channels {
		panic(fmt.Sprintf("oggenc: deinterleave into %d planes, need %d", len(dst), channels))
	}
	for c := range channels {
		plane := dst[c][:frames]
		for j, i := 0, base+c; j < frames; j, i = j+1, i+channels {
			plane[j] = src[i]
		}
	}
}
