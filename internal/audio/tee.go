package audio

import (
	"errors"
	"fmt"
	"io"
)

const chunkSize = 8192

// Tee copies src into every branch until src is exhausted. Branches are
// closed for writing on EOF, or with the read error otherwise, which is also
// returned. A slow branch never slows the others.
func Tee(src io.Reader, branches ...*Buffer) error {
	chunk := make([]byte, chunkSize)
	for {
		n, err := src.Read(chunk)
		if n > 0 {
			for _, b := range branches {
				if _, werr := b.Write(chunk[:n]); werr != nil {
					return fmt.Errorf("tee write: %w", werr)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			for _, b := range branches {
				b.CloseWrite()
			}
			return nil
		}
		if err != nil {
			for _, b := range branches {
				b.CloseWithError(err)
			}
			return fmt.Errorf("tee read: %w", err)
		}
	}
}
