// Package scripts embeds the Risor consistency checks run by "dataminer check".
package scripts

import (
	"embed"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed check/*.risor
var FS embed.FS

// Checks returns the names of the embedded checks in sorted order.
func Checks() []string {
	entries, err := fs.ReadDir(FS, "check")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if path.Ext(e.Name()) == ".risor" {
			names = append(names, strings.TrimSuffix(e.Name(), ".risor"))
		}
	}
	slices.Sort(names)
	return names
}
