// Package sessionid generates and parses session identifiers.
//
// An identifier is a lowercase hex digest derived from random and time-salted
// material. In secure mode the public identifier carries a second secret
// digest appended after a dash; only the hash of that secret half is stored
// server-side (see the securetoken package), so the store key and the public
// identifier differ:
//
//	public: 3f2a...9d1c-77be...04aa
//	db id:  3f2a...9d1c
//
// Valid implements the cheap format guard every inbound candidate passes
// before any store access is attempted:
//
//	^[a-f0-9]{30,128}(-[a-f0-9]{30,128})?$
//
// Anything else is rejected up front, keeping garbage and probe traffic away
// from the backing store.
package sessionid
