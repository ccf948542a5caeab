// Package repositories implements the client's persistent session state on top of SQLite.
//
// Everything is stored as string values in one key/value table, mirroring the string-keyed storage a
// browser client would use:
//   - [KVStore] : raw Get/Set/Delete plus an atomic read-modify-write [KVStore.Update]
//   - [TokenRepository] : the bearer token and its advisory expiry check
//   - [BlendCache] : {code, name} summaries of blends created or joined on this device
//   - [RecentlyWatched] : a capped, de-duplicated list of titles entered locally
//
// A KVStore built on a nil database is inert: reads return neutral values and writes are dropped.
package repositories
