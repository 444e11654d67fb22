//go:build !darwin

package process

import (
	"context"
	"path/filepath"
)

// resolveBundle uses the executable's base name as the package identifier;
// there is no bundle metadata to read, so the result is always final.
func resolveBundle(_ context.Context, exe, name string) (bundleInfo, bool) {
	if exe == "" {
		return bundleInfo{id: name, name: name}, true
	}
	return bundleInfo{
		id:       filepath.Base(exe),
		location: exe,
		name:     name,
	}, true
}
