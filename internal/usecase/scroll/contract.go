package scroll

// IDGenerator produces opaque scroll ids.
type IDGenerator interface {
	NewScrollID() string
}
