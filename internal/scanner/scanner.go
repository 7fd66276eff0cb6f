package scanner

import "context"

// ArtifactType represents the kind of file a build produced
type ArtifactType int

const (
	TypeUnknown ArtifactType = iota
	TypeStaticLib
	TypeELF
	TypeMachO
	TypePE
	TypeHeader
)

// String returns the string representation of ArtifactType
func (t ArtifactType) String() string {
	switch t {
	case TypeStaticLib:
		return "static-lib"
	case TypeELF:
		return "elf"
	case TypeMachO:
		return "mach-o"
	case TypePE:
		return "pe"
	case TypeHeader:
		return "header"
	default:
		return "unknown"
	}
}

// Artifact represents a file found during scanning
type Artifact struct {
	Path string
	Type ArtifactType
	Size int64
}

// Scanner interface for detecting and scanning build artifacts
type Scanner interface {
	// Scan recursively scans a directory for artifacts
	Scan(ctx context.Context, dir string) ([]Artifact, error)

	// DetectType determines the artifact type of a file
	DetectType(path string) (ArtifactType, error)
}
