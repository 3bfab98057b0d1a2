//go:build !windows

package output

import "os"

// enableANSI reports ANSI support. Unix terminals handle it natively.
func enableANSI(*os.File) bool {
	return true
}
