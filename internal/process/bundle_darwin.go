//go:build darwin

package process

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
)

// resolveBundle finds the enclosing .app bundle of exe and reads its
// identifier and name from Info.plist. Executables outside a bundle have no
// bundle id. The result is final unless the bundle identifier could not be
// read, for example because ctx ended while defaults was running.
func resolveBundle(ctx context.Context, exe, name string) (bundleInfo, bool) {
	info := bundleInfo{name: name}

	idx := strings.LastIndex(exe, ".app/Contents/")
	if idx < 0 {
		return info, true
	}
	appPath := exe[:idx+len(".app")]
	plist := filepath.Join(appPath, "Contents", "Info")

	info.location = appPath
	info.id = readPlistKey(ctx, plist, "CFBundleIdentifier")
	if bundleName := readPlistKey(ctx, plist, "CFBundleName"); bundleName != "" {
		info.name = bundleName
	}
	return info, info.id != ""
}

// readPlistKey uses defaults(1), which reads both XML and binary plists.
func readPlistKey(ctx context.Context, plist, key string) string {
	out, err := exec.CommandContext(ctx, "defaults", "read", plist, key).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
