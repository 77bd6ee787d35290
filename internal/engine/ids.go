package engine

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

const (
	idLength = 20
	// a scroll id concatenates one id per search phase
	scrollPhases = 6
)

// IDGenerator produces document and scroll identifiers.
type IDGenerator interface {
	NewID() string
	NewScrollID() string
}

// RandomIDs generates URL-safe random identifiers from version 4 UUIDs.
type RandomIDs struct{}

// NewID returns a 20 character identifier.
func (RandomIDs) NewID() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:])[:idLength]
}

// NewScrollID returns base64 of six concatenated identifiers.
func (g RandomIDs) NewScrollID() string {
	var b strings.Builder
	for range scrollPhases {
		b.WriteString(g.NewID())
	}
	return base64.StdEncoding.EncodeToString([]byte(b.String()))
}
