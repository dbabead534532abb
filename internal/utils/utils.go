package utils

import (
	"strings"

	"github.com/mitchellh/go-homedir"
)

// Indent prefixes every line of the given text with the indent string.
func Indent(text, indent string) string {
	if len(strings.TrimSpace(text)) == 0 {
		return indent
	}

	var result strings.Builder
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		result.WriteString(indent + line + "\n")
	}
	return strings.TrimSuffix(result.String(), "\n")
}

// ExpandFilePath resolves a leading ~ in the given path against the current user's home directory.
func ExpandFilePath(path string) string {
	if path == "" {
		return path
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
