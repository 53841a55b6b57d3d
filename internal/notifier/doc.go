// Package notifier sends best-effort operator alerts.
//
// Alerts are small, high-signal messages for whoever runs the relay: the
// account session needs a manual login, a login failed, or a run hit an
// unexpected error. They are delivered by a separate bot account so they
// still arrive when the user session is unusable.
//
// Delivery is synchronous (the process runs once and exits), rate limited,
// and retried with jittered exponential backoff. Callers log a failed
// delivery and carry on; a notification never changes a run's outcome.
package notifier
