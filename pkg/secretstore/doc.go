// Package secretstore defines the boundary between smpull and the remote
// secret store it reads from.
//
// A Connector opens a scoped Client for one fetch pass. The Client returns
// the latest version of a secret payload as text:
//
//	client, err := connector.Connect(ctx)
//	if err != nil {
//	    // the store is unreachable; callers decide how to degrade
//	}
//	defer client.Close()
//
//	value, err := client.AccessLatest(ctx, "my-project", "db-password")
//
// # Errors
//
// Implementations classify failures with the error types in this package:
//   - ConnectivityError when a connection cannot be established
//   - NotFoundError when the secret (or its latest version) does not exist
//   - AuthError when credentials are rejected
//
// # Security Considerations
//
// Clients must never log secret payloads (use logging.Secret for anything
// that might carry a value).
package secretstore
