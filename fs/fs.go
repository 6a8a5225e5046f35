// Package appfs exposes build-time assets: SQL migrations and email templates.
package appfs

import "embed"

// the explicit glob pulls in the _-prefixed base templates the directory
// form of the directive skips
//
//go:embed migrations templates/email/*
var FS embed.FS
