package source

import "context"

// ParseResult holds the declarations and imports of a single file.
type ParseResult struct {
	File         FileNode      `json:"file"`
	Package      string        `json:"package"`
	Declarations []Declaration `json:"declarations"`
	Imports      []Import      `json:"imports,omitempty"`
}

// Parser extracts annotated declarations from source files.
type Parser interface {
	// Parse extracts declarations from a single source file. path is used
	// for locations and for deriving the package of path-addressed languages.
	Parse(ctx context.Context, path string, source []byte, lang Language) (*ParseResult, error)

	// SupportedLanguages returns the languages this parser can handle.
	SupportedLanguages() []Language

	// Close releases parser resources.
	Close() error
}
