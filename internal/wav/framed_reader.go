package wav

import "io"

// FramedReader turns a flowing stream of raw PCM bytes into a complete
// WAVE container. The header is written out exactly once, ahead of the
// first payload byte, and everything the source produces afterwards is
// passed through in order with no extra buffering beyond the chunk in
// transit.
type FramedReader struct {
	src        io.Reader
	payloadLen int
	format     Format

	headerSent bool
	queued     []byte // header plus any payload read alongside it
	srcErr     error  // deferred until queued bytes are drained
}

// NewFramedReader wraps src with a header declaring payloadLen bytes of
// PCM in the given format. The header is not materialized until the
// first Read proves the source is producing data.
func NewFramedReader(src io.Reader, payloadLen int, f Format) *FramedReader {
	return &FramedReader{src: src, payloadLen: payloadLen, format: f.withDefaults()}
}

func (r *FramedReader) Read(p []byte) (int, error) {
	if !r.headerSent {
		// Pull past zero-length reads until the source yields data or ends.
		chunk := make([]byte, 32*1024)
		var pending []byte
		for {
			n, err := r.src.Read(chunk)
			if n > 0 {
				pending = chunk[:n]
			}
			if err != nil {
				r.srcErr = err
			}
			if n > 0 || err != nil {
				break
			}
		}

		header, err := EncodeHeader(r.payloadLen, r.format)
		if err != nil {
			return 0, err
		}
		r.queued = append(header, pending...)
		r.headerSent = true
	}

	if len(r.queued) > 0 {
		n := copy(p, r.queued)
		r.queued = r.queued[n:]
		return n, nil
	}
	if r.srcErr != nil {
		return 0, r.srcErr
	}
	return r.src.Read(p)
}

// Close releases the underlying source when it holds resources, letting
// callers abandon a stream mid-consumption.
func (r *FramedReader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
