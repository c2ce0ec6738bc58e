package storage

import (
	"context"
	"os"
)

type FileObject struct {
	FilePath string
}

func NewFileObject(filePath string) *FileObject {
	return &FileObject{FilePath: filePath}
}

func (f *FileObject) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.FilePath)
}
