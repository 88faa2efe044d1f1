package extraction

import (
	"bytes"

	"github.com/ledongthuc/pdf"
)

// CountPages inspects PDF bytes and returns the page count. Unreadable
// documents report zero pages; the count feeds meta only and must not fail
// the extraction.
func CountPages(data []byte) (n int) {
	// The pdf package panics on some malformed xref tables.
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return reader.NumPage()
}
