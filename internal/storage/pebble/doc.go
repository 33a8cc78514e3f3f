// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// batches, prefix scans, an optional in-memory filesystem and minimal metrics
// hooks. The embedded stream backend is its only user.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(context.Background(), b)
//	b.Close()
//
//	// In-memory, e.g. for tests
//	mem, _ := pebblestore.Open(pebblestore.Options{FS: vfs.NewMem()})
package pebblestore
