// Package platform describes the OS facilities the shell brokers: permission
// prompts, activity launches, capture destinations, durable grants, user
// notifications and media scans.
//
// The interfaces here are implemented by the host link for a real embedding
// shell and by fakes in tests. Capabilities is resolved once from the
// platform API level so components branch on features, never on versions.
package platform
