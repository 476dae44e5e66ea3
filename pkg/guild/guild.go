package guild

// Guild is one community on the chat platform, created lazily on first
// reference. UTCOffset is a signed whole number of hours; no DST rules.
type Guild struct {
	ID        string
	UTCOffset int
}
