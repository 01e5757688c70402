package roster

import (
	"bytes"
	_ "embed"
)

//go:embed default.yaml
var defaultRoster []byte

// Default returns the built-in Vermont roster.
func Default() *File {
	f, err := Parse(bytes.NewReader(defaultRoster))
	if err != nil {
		panic("roster: built-in roster is invalid: " + err.Error())
	}
	return f
}
