package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Usage is the on-disk footprint of each storage location, in bytes.
type Usage struct {
	Database int64 `json:"database"`
	Uploads  int64 `json:"uploads"`
	Vectors  int64 `json:"vectors"`
}

// Total returns the combined size.
func (u Usage) Total() int64 {
	return u.Database + u.Uploads + u.Vectors
}

// DiskUsage measures the database file (with its WAL and shared-memory companions), the
// upload directory and the vector store directory.
func DiskUsage(dbPath, uploadDir, vectorDir string) (Usage, error) {
	var u Usage
	var err error
	if u.Database, err = DiskUsageBytes(dbPath, dbPath+"-wal", dbPath+"-shm"); err != nil {
		return u, err
	}
	if u.Uploads, err = DiskUsageBytes(uploadDir); err != nil {
		return u, err
	}
	if u.Vectors, err = DiskUsageBytes(vectorDir); err != nil {
		return u, err
	}
	return u, nil
}

// DiskUsageBytes returns the total size of the given files and directories.
// Missing paths count as zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return 0, err
		}
	}
	return total, nil
}
