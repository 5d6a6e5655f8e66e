package game

// Version of the client.
// Bumping this number will eventually make browsers reload the WASM.
//
// If you set this to an empty string, a random version number will be
// used, and force the reload of the WASM on every restart. This is useful
// during development.
var Version = "v0.3.0"

// DefaultAnnounceThreshold is the hand size at or below which a player may
// announce "one card", used when the server does not send a rule set.
var DefaultAnnounceThreshold = 1
