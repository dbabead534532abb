package file

import (
	"io"

	"github.com/wagoodman/go-progress"
)

type progressAdapter struct {
	monitor *progress.Manual
}

type readerAdapter struct {
	io.Reader
	monitor *progress.Manual
}

func (r *readerAdapter) Read(b []byte) (int, error) {
	n, err := r.Reader.Read(b)
	r.monitor.Add(int64(n))
	return n, err
}

func (a *progressAdapter) TrackProgress(_ string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	a.monitor.Set(currentSize)
	a.monitor.SetTotal(totalSize)
	return &struct {
		io.Reader
		io.Closer
	}{
		Reader: &readerAdapter{
			Reader:  stream,
			monitor: a.monitor,
		},
		Closer: stream,
	}
}
