// Package storage writes the generated site into its destination tree.
package storage

import "github.com/starford/quire/internal/models"

// Provider is the interface for destination file operations. All paths are
// slash- or OS-separated and relative to the destination root.
type Provider interface {
	// List returns metadata for every file under dir.
	List(dir string) ([]models.OutputMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path and returns its checksum.
	Write(path string, content []byte) (string, error)
	// Copy atomically copies the file at src (an absolute or working-directory
	// path outside the destination) to path and returns its checksum.
	Copy(path, src string) (string, error)
	// Delete removes the file at path.
	Delete(path string) error
}
