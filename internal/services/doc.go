// package services defines interface RadioService for talking to the remote
// streaming radio API.
//
// The wire format is the service's own JSON contract; everything above this
// package treats the client as an opaque capability and classifies failures
// only through the sentinel errors in [shared].
package services
