package migrations

import "embed"

// Migration files are bundled at compile time so the compiler ships as a
// single binary without external file dependencies.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
