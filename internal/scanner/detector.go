package scanner

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Magic bytes for artifact detection
var (
	// Unix static archives start with the ar global header
	arMagic = []byte("!<arch>\n")

	// Debian packages are ar archives too; their first member is debian-binary
	debMagic = []byte("!<arch>\ndebian")

	elfMagic = []byte{0x7F, 'E', 'L', 'F'}

	// Mach-O 32/64-bit in both byte orders
	machOMagics = [][]byte{
		{0xFE, 0xED, 0xFA, 0xCE},
		{0xFE, 0xED, 0xFA, 0xCF},
		{0xCE, 0xFA, 0xED, 0xFE},
		{0xCF, 0xFA, 0xED, 0xFE},
	}

	peMagic = []byte("MZ")
)

var headerExts = map[string]bool{
	".h":   true,
	".hh":  true,
	".hpp": true,
}

// DetectArtifactType determines the artifact type from magic bytes,
// falling back to the extension for headers
func DetectArtifactType(path string) (ArtifactType, error) {
	f, err := os.Open(path)
	if err != nil {
		return TypeUnknown, err
	}
	defer f.Close()

	header := make([]byte, 64)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return TypeUnknown, err
	}
	header = header[:n]

	return classify(header, filepath.Ext(path)), nil
}

func classify(header []byte, ext string) ArtifactType {
	if bytes.HasPrefix(header, debMagic) {
		return TypeUnknown
	}
	if bytes.HasPrefix(header, arMagic) {
		return TypeStaticLib
	}
	if bytes.HasPrefix(header, elfMagic) {
		return TypeELF
	}
	for _, m := range machOMagics {
		if bytes.HasPrefix(header, m) {
			return TypeMachO
		}
	}
	if bytes.HasPrefix(header, peMagic) {
		return TypePE
	}
	if headerExts[ext] {
		return TypeHeader
	}
	return TypeUnknown
}
