// Package stores implements secretstore.Connector for Google Cloud Secret
// Manager, AWS Secrets Manager, AWS SSM Parameter Store and Azure Key Vault.
//
// Every connector accepts an option that injects the SDK client, which is
// how the tests exercise the stores against the fakes in tests/fakes.
package stores
