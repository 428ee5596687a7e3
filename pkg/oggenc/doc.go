// Package oggenc encodes interleaved float32 PCM into an Ogg Vorbis stream,
// either in one call or incrementally as audio arrives.
//
// An Encoder owns one logical stream. The first fragment it returns holds
// the three Vorbis header pages; later fragments hold zero or more complete
// audio pages, and Finish returns the tail up to the end-of-stream page.
// Concatenating every fragment in order yields a valid Ogg Vorbis file.
//
// Protocol:
//
//	enc, err := oggenc.New(oggenc.Format{Channels: 2, SampleRate: 48000, Quality: 0.5})
//	if err != nil {
//	    return err
//	}
//	defer enc.Close()
//
//	header, _ := enc.TakeHeader()
//	w.Write(header.Bytes())
//	header.Release()
//
//	for chunk := range chunks {
//	    frag, err := enc.Feed(chunk) // len(chunk) % Channels == 0
//	    ...
//	}
//	tail, err := enc.Finish()
//
// Out-of-order calls get a fallback instead of an error: Feed or Finish
// before the header returns the header (the chunk is ignored), and Feed or
// Finish after Finish returns an empty fragment.
//
// EncodeAll runs the whole protocol over an in-memory buffer. Its output is
// byte-identical to the streaming path for the same serial number, however
// the PCM is split across Feed calls.
//
// An Encoder is not safe for concurrent use. Distinct encoders share no
// state and may run on separate goroutines.
package oggenc
