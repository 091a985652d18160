package sql

import (
	"embed"
)

// Migrations holds the schema migrations applied by `rifexport migrate`.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/register_run.sql
var RegisterRun string

//go:embed queries/finish_run.sql
var FinishRun string
