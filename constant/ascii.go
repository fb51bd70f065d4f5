package constant

import _ "embed"

// AsciiArtLogo is printed at the top of the root help.
//
//go:embed ascii.txt
var AsciiArtLogo string
