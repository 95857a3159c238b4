// Package services implements the client for the remote synchronization API behind the [Synchronizer] interface.
//
// # Wire Contract
//
// [SyncService.Synchronize] issues a single PUT with the JSON body
//
//	{pelotonEmail, pelotonPassword, garminEmail, garminPassword, garminPelotonGearName, numDaysToSync}
//
// and decodes the reply as {error?, result?}. The HTTP status is not interpreted: a decodable body
// is the outcome. Exactly one response is expected per request; there is no streaming and no retry.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure or unreadable body
//   - [shared.ErrInvalidResponse] : body is not a sync response
//
// Application-level failures (bad credentials, missing gear) are not Go errors; they arrive in the
// response's error field and are rendered verbatim.
//
// # Cancellation
//
// Requests honor the caller's context. An optional timeout wraps each request when configured.
package services
