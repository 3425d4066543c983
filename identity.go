package gamesync

// Identity supplies the acting user for store operations. It is an
// injected capability, never ambient global state, so store logic is
// testable without a live authentication subsystem.
type Identity interface {
	// CurrentUser returns the stable user id and true, or ("", false)
	// when nobody is signed in.
	CurrentUser() (string, bool)
}

// StaticIdentity is a fixed Identity. The empty string means signed
// out.
type StaticIdentity string

// CurrentUser implements Identity.
func (s StaticIdentity) CurrentUser() (string, bool) { return string(s), s != "" }
