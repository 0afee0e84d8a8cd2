// Package truststore reads and writes keystores holding trusted X.509
// certificates.
//
// Two keystore types are supported:
//
//   - PKCS12 (the default), encoded with go-pkcs12
//   - JKS, encoded with keystore-go
//
// Aliases are matched case-insensitively. JKS stores them lower-cased while
// PKCS12 keeps the case they were written with, as the JDK does.
package truststore
