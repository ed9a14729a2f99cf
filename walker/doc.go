// Package walker discovers the files a coding run will rename.
//
// A Walker descends the whole tree under a root exactly once and yields a
// WorkItem per regular file. Platform bookkeeping files (desktop.ini,
// .DS_Store, Thumbs.db, AppleDouble "._" files and the like) never appear in
// the sequence. Traversal order carries no meaning; codes are assigned
// independently of it.
package walker
