package utils

import (
	"io"

	"github.com/davecgh/go-spew/spew"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

// FDump writes a dump without pointer addresses, map keys sorted
func FDump(w io.Writer, a ...interface{}) {
	spewConfig.Fdump(w, a...)
}
