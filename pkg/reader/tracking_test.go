package reader

import "bytes"

// trackingReader records every seek target and read call.
type trackingReader struct {
	*bytes.Reader
	seeks []int64
	reads int
}

func newTrackingReader(b []byte) *trackingReader {
	return &trackingReader{Reader: bytes.NewReader(b)}
}

func (r *trackingReader) Seek(offset int64, whence int) (int64, error) {
	n, err := r.Reader.Seek(offset, whence)
	r.seeks = append(r.seeks, n)
	return n, err
}

func (r *trackingReader) Read(p []byte) (int, error) {
	r.reads++
	return r.Reader.Read(p)
}
