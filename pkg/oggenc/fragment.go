package oggenc

import "io"

// Fragment is an owned run of zero or more complete Ogg pages.
//
// An empty fragment is a valid result meaning nothing was ready. Release
// drops the bytes; a released fragment reads as empty and releasing it again
// is a no-op. Fragments never share storage with each other or with the
// encoder that produced them. All methods are safe on a nil *Fragment.
type Fragment struct {
	data []byte
}

// Bytes returns the fragment contents. The slice is owned by the fragment
// and must not be used after Release.
func (f *Fragment) Bytes() []byte {
	if f == nil {
		return nil
	}
	return f.data
}

// Len returns the fragment length in bytes.
func (f *Fragment) Len() int {
	if f == nil {
		return 0
	}
	return len(f.data)
}

// Size returns the fragment length as an int32. Fragments never exceed
// math.MaxInt32 bytes.
func (f *Fragment) Size() int32 {
	return int32(f.Len())
}

// WriteTo writes the fragment contents to w.
func (f *Fragment) WriteTo(w io.Writer) (int64, error) {
	if f.Len() == 0 {
		return 0, nil
	}
	n, err := w.Write(f.data)
	return int64(n), err
}

// Release drops the fragment contents.
func (f *Fragment) Release() {
	if f != nil {
		f.data = nil
	}
}
