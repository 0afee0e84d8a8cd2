// Package secure provides memory-safe handling of sensitive data.
//
// This package wraps the memguard library to keep credentials such as the
// trust store password encrypted in memory between the moment they are
// resolved and the moment a sink needs them. It also resolves credential
// references from the environment or the OS keyring.
//
// # Usage
//
//	buf, err := secure.ResolvePassword("keyring:smpull/truststore")
//	if err != nil {
//	    return err
//	}
//	defer buf.Destroy()
//
//	err = buf.Use(func(password []byte) error {
//	    return store.Write(w, password)
//	})
//
// # Platform Behavior
//
// Memory locking behavior varies by platform:
//
//   - Linux: Requires RLIMIT_MEMLOCK to be set appropriately
//   - macOS: Works out of the box
//   - Windows: Uses VirtualLock
//
// It does NOT protect against attackers with access to the running
// process or hardware-level attacks.
package secure
