/*
Package hostlink connects the shell to its native embedding host over a
WebSocket at GET /hostlink.

Every frame is a JSON envelope encoded with sonic:

	{"type": "...", "token": "...", "data": {...}}

The host reports OS events (permission answers, activity results, media
permission requests, navigation checks, launches). The shell sends OS commands
(permission prompts, activity launches, durable grants, toasts, media scans)
and replies. Tokens correlate requests with their answers.

Link implements the platform interfaces, so the brokers never know whether
they talk to a real device or a test double.
*/
package hostlink
