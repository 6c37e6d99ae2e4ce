// Package audit records security-relevant account events: registrations,
// logins and every admin status change.
//
// # Destinations
//
// LogrusLogger writes events into the service log with log_type=audit.
// FileLogger appends JSON lines to a dedicated file with size-based rotation.
// MultiLogger fans out to both:
//
//	trail := audit.NewMultiLogger(
//		audit.NewLogrusLogger(logger),
//		fileLogger,
//	)
//
// # Usage
//
//	event := audit.NewEvent(ctx, audit.EventTypeAdminPromote, audit.EventStatusSuccess)
//	event.Actor = actor.Username
//	event.TargetID = target.ID
//	trail.Log(ctx, event)
//
// Audit failures are logged by the caller and never fail the audited
// operation.
package audit
