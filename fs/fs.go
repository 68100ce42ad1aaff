package appfs

import "embed"

// FS holds the files embedded in the binaries.
//
//go:embed migrations/*.sql templates/email/* common-passwords.txt
var FS embed.FS
