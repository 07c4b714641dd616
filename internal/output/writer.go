package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skybow044/dalghaksub/internal/model"
)

// MessageSeparator separates messages in a message dump.
const MessageSeparator = "\n\n-----\n\n"

// File is one pending write.
type File struct {
	// Path is the destination path.
	Path string

	// Data is the full file content.
	Data []byte
}

// Plan collects the files of a run so they can be written together once
// every artifact has been built and verified.
type Plan struct {
	files []File
}

// Add queues a file. An empty path is ignored.
func (p *Plan) Add(path string, data []byte) {
	if path == "" {
		return
	}
	p.files = append(p.files, File{Path: path, Data: data})
}

// AddArtifact queues the plain and encoded forms of an artifact.
// Either path may be empty to skip that form.
func (p *Plan) AddArtifact(a *model.Artifact, plainPath, encodedPath string) {
	p.Add(plainPath, []byte(a.Plain))
	p.Add(encodedPath, []byte(a.Encoded))
}

// AddPartitions queues "<name>.txt" and "<name>_base64.txt" in dir for
// every artifact.
func (p *Plan) AddPartitions(dir string, artifacts []model.Artifact) {
	for i := range artifacts {
		a := &artifacts[i]
		p.AddArtifact(a,
			filepath.Join(dir, a.Name+".txt"),
			filepath.Join(dir, a.Name+"_base64.txt"),
		)
	}
}

// Files returns the queued files in order.
func (p *Plan) Files() []File {
	return p.files
}

// Paths returns the queued destination paths in order.
func (p *Plan) Paths() []string {
	paths := make([]string, len(p.files))
	for i, f := range p.files {
		paths[i] = f.Path
	}
	return paths
}

// Write writes every queued file atomically, stopping at the first error.
func (p *Plan) Write() error {
	for _, f := range p.files {
		if err := WriteFileAtomic(f.Path, f.Data); err != nil {
			return err
		}
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file in the destination
// directory and renames it over path, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil { //nolint:gosec // subscription files are meant to be shared
		cleanup()
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// MessageDump joins message texts with MessageSeparator and a final newline.
func MessageDump(messages []model.Message) []byte {
	return []byte(strings.Join(model.Texts(messages), MessageSeparator) + "\n")
}
