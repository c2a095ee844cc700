// Package services holds cross-cutting helpers for Marquee's external
// service clients: context annotations used by logging and the shared error
// classification that tells the engine whether a failure is retryable.
package services
