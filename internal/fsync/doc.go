// Package fsync implements the filesystem steps of a dry run: mirroring a
// source tree into a destination, prefixing function directories, and
// removing stale build output.
//
// Every operation works on a billy.Filesystem rooted at the project
// directory, so the same code runs against the real disk (osfs) in
// production and an in-memory tree (memfs) in tests. The one exception is
// RsyncMirror, which delegates to the rsync binary.
package fsync
