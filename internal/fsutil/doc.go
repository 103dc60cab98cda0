// Package fsutil serializes access to small state files and replaces them
// atomically, so a crash mid-write leaves either the old or the new content.
package fsutil
