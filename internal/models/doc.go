// Package models defines the data exchanged between the sync form, the local credential store and the remote synchronization API.
//
// # Wire Types
//
// [SyncRequest] is the JSON body sent to the remote API; [SyncResponse] is what it returns.
// The response carries an optional error message and an optional list of [SyncResult] rows.
// Both fields are inspected independently; nothing guarantees the server only sets one.
//
// # Persisted Types
//
// [PersistedRecord] is the snapshot written to local storage when the user opts into remembering credentials.
// It is validated on load with [DecodePersistedRecord] and rejected, never trusted, when malformed.
//
// [SyncRun] is a credential-free history row describing one submitted request.
package models
