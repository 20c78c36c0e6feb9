package translate

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnknownDestination is returned when Translate is asked for a destination
// no one registered.
var ErrUnknownDestination = eris.New("translate: unknown destination")

// MappingGapError means an upstream vocabulary value has no entry in a
// destination's mapping table. It is fatal for that destination: silently
// dropping the filter would make the destination scrape unfiltered data.
type MappingGapError struct {
	Destination string
	Field       string
	Bucket      string
}

func (e *MappingGapError) Error() string {
	return fmt.Sprintf("translate: %s has no %s mapping for %q", e.Destination, e.Field, e.Bucket)
}

// UnresolvedIndustryError means the intent carries opaque industry IDs the
// mapping store cannot resolve and the destination needs text names. The
// translation fails closed with zero payload; IDs lists exactly what must be
// added to the store.
type UnresolvedIndustryError struct {
	Destination string
	IDs         []string
}

func (e *UnresolvedIndustryError) Error() string {
	return fmt.Sprintf("translate: %s requires industry names, unresolved ids: %s",
		e.Destination, strings.Join(e.IDs, ", "))
}
