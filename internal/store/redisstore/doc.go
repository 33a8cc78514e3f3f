// Package redisstore is the store.Backend for Redis streams. Commands map
// one to one onto XADD, XREAD, XREADGROUP, XACK, XAUTOCLAIM, XGROUP CREATE
// MKSTREAM and XPENDING. Blocking reads go through the go-redis connection
// pool, so each one holds its own connection while it waits and never stalls
// other commands.
package redisstore
