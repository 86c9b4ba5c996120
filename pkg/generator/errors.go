package generator

import (
	"errors"
	"fmt"
)

var (
	ErrNoSuchVersion           = errors.New("no such version")
	ErrNoGlossaryDir           = errors.New("the glossarydir attribute in the SAF scope is empty so there is no location to save the MRG")
	ErrCannotCreateGlossaryDir = errors.New("could not create glossary dir")
	ErrNoConnector             = errors.New("no connector configured for location")
)

func noSuchVersion(versionTag string) error {
	return fmt.Errorf("%w: no version with version tag (vsntag) of %q found in SAF", ErrNoSuchVersion, versionTag)
}
