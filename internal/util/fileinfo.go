package util

import (
	"fmt"
	"os"
	"syscall"
)

// FileInfo identifies a file's on-disk state: modification time, size, and
// inode number.
type FileInfo struct {
	ModTime int64  // Unix seconds
	Size    int64  // bytes
	Inode   uint64 // unique file identifier on Unix-like systems
}

// GetFileInfo retrieves the file's identity, including its inode number.
// Supported on Linux and macOS.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	sysStat, ok := stat.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, fmt.Errorf("failed to get file system information: %s", path)
	}

	return &FileInfo{
		ModTime: stat.ModTime().Unix(),
		Size:    stat.Size(),
		Inode:   sysStat.Ino,
	}, nil
}
