// Package fakes provides test doubles for the secret store SDK clients and
// for the secretstore interfaces.
//
// Fakes are manually implemented (not generated) to provide precise control
// over test behavior.
//
// Usage:
//
//	fake := fakes.NewFakeGCPSecretManagerClient()
//	fake.AddSecretString("my-project", "db-password", "s3cr3t")
//	connector := stores.NewGCPConnector(stores.GCPOptions{}, stores.WithGCPClient(fake))
//	// Test store behavior...
package fakes
