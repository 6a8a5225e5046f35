package upload

import (
	"path"
	"time"
)

// Record tracks one stored file. FileTitle is the generated on-disk name,
// FileName the name the client uploaded it under.
type Record struct {
	ID        string    `json:"_id" db:"id"`
	FileName  string    `json:"file_name" db:"file_name"`
	FilePath  string    `json:"file_path" db:"file_path"`
	FileTitle string    `json:"file_title" db:"file_title"`
	SectionID string    `json:"-" db:"section_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// StoreRelPath strips the public uploads prefix off FilePath, yielding the
// path the file store addresses files by.
func (r Record) StoreRelPath() string {
	return path.Clean(trimUploadsPrefix(r.FilePath))
}

func trimUploadsPrefix(p string) string {
	const prefix = "uploads/"
	if len(p) > len(prefix) && p[:len(prefix)] == prefix {
		return p[len(prefix):]
	}
	return p
}
