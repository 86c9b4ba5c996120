package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tev2-toolkit/mrgen/internal/utils"
	"github.com/tev2-toolkit/mrgen/pkg/model"
)

// MRGFilename returns <basename>.<vsntag>.yaml. The basename is the SAF's
// mrgfile without a yaml extension, or "mrg".
func MRGFilename(mrgFile, versionTag string) string {
	base := strings.TrimSuffix(strings.TrimSuffix(mrgFile, ".yml"), "."+model.MRGFileExtension)
	if base == "" {
		base = model.DefaultMRGBasename
	}
	return base + "." + versionTag + "." + model.MRGFileExtension
}

// WriteMRG serializes mrg to path, creating the glossary directory if needed.
// The file is locked while it is written.
func WriteMRG(mrg model.MRG, path string) error {
	data, err := model.MarshalMRG(mrg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w at %s: %v", ErrCannotCreateGlossaryDir, dir, err)
	}

	lock, err := utils.NewFileLock(path)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to write MRG to location %s: %w", path, err)
	}
	return nil
}
