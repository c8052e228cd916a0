package app

import (
	"strings"

	"github.com/google/uuid"
)

const devicePrefix = "dev_"

// NewDeviceID returns a fresh device identity of the form dev_<uuid>.
func NewDeviceID() string {
	return devicePrefix + uuid.NewString()
}

// ValidDeviceID reports whether id was issued by NewDeviceID.
func ValidDeviceID(id string) bool {
	rest, ok := strings.CutPrefix(id, devicePrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil && len(rest) == 36
}
