// Package tokenstore provides durable, mutex-guarded storage for the access and
// refresh token pair used by the authenticated request pipeline.
//
// # Write-through persistence
//
// [Store] keeps the authoritative copy in memory and writes every mutation
// through to a [Persister] while still holding its lock, so the persisted order
// always matches the real-time order of Set and Clear calls. Persister failures
// are logged and swallowed: the in-memory value stays authoritative for the
// lifetime of the process.
//
// Bundled persisters: [FilePersister] (JSON file, atomic rename),
// [RedisPersister] (hash key), [KeyringPersister] (OS credential store) and
// [SQLitePersister] (single-row table).
//
// # Generations
//
// Every Clear and every full credential replacement advances a generation
// counter. Callers that read credentials, perform slow I/O and then write back
// (the refresh coordinator) use the *IfGeneration methods so a logout that
// happens in between is never undone.
//
// # What this package must NOT do
//
//   - Import goAuthClient or any internal package (no upward imports).
//   - Log token values.
//   - Return persistence errors from Get/Set/Clear.
package tokenstore
