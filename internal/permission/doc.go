// Package permission gates OS-mediated actions behind runtime permissions.
//
// The Gate never self-grants: it reads state from the platform, issues at most
// one prompt per capability at a time, and resolves every waiter exactly once
// when the prompt's answer arrives. WebRequests applies the gate to the page's
// media-permission requests.
package permission
