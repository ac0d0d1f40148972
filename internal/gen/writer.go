package gen

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFiles writes all generated files. Relative filenames are resolved
// against outputDir, which is created if it doesn't exist.
func WriteFiles(files []GeneratedFile, outputDir string) error {
	for _, file := range files {
		outputPath := file.Filename
		if !filepath.IsAbs(outputPath) {
			outputPath = filepath.Join(outputDir, outputPath)
		}

		err := os.MkdirAll(filepath.Dir(outputPath), dirPerm)
		if err != nil {
			return errors.Wrap(err, "creating output directory")
		}

		err = os.WriteFile(outputPath, file.Content, filePerm)
		if err != nil {
			return errors.Wrapf(err, "writing file %s", file.Filename)
		}
	}

	return nil
}

// writeDebugUnformatted writes unformatted code next to the intended output
// so a template bug can be inspected. It is best-effort.
func writeDebugUnformatted(filename string, content []byte) {
	if filename == "" {
		return
	}

	debugName := filename[:len(filename)-len(filepath.Ext(filename))] + ".unformatted.go"

	_ = os.MkdirAll(filepath.Dir(debugName), dirPerm)
	_ = os.WriteFile(debugName, content, filePerm)
}
