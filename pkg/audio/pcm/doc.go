// Package pcm provides types and utilities for working with raw PCM
// (Pulse Code Modulation) audio data on its way into the encoder.
//
// Raw input arrives as interleaved little-endian samples, either 32-bit
// float (f32le) or 16-bit signed integer (s16le). The package converts both
// to the interleaved float32 samples the encoder consumes and reads them in
// chunks that always hold whole frames.
//
// Key types:
//   - Encoding: sample encoding of raw input (F32LE, S16LE)
//   - Format: encoding, channel count and sample rate of a raw stream
//   - Reader: reads frame-aligned float32 chunks from an io.Reader
//
// Example usage:
//
//	format := pcm.Format{Encoding: pcm.S16LE, Channels: 2, SampleRate: 48000}
//
//	// Bytes needed for 20ms of audio
//	n := format.BytesInDuration(20 * time.Millisecond)
//
//	r := pcm.NewReader(os.Stdin, format, 100*time.Millisecond)
//	for {
//	    samples, err := r.Read()
//	    if err == io.EOF {
//	        break
//	    }
//	    // feed samples
//	}
package pcm
