package normalize

import "github.com/leapstack-labs/macrodash/pkg/core"

// table builds a raw table from "top|sub" header specs.
func table(name string, headers []string, rows ...[]string) *core.RawTable {
	hs := make([]core.Header, len(headers))
	for i, h := range headers {
		top, sub := h, ""
		for j := 0; j < len(h); j++ {
			if h[j] == '|' {
				top, sub = h[:j], h[j+1:]
				break
			}
		}
		hs[i] = core.Header{Top: top, Sub: sub}
	}
	return &core.RawTable{Name: name, Headers: hs, Rows: rows}
}
