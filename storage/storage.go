package storage

import (
	"context"
	"errors"
)

// Object is a blob that can be loaded in full: a nutrition table, an uploaded image.
type Object interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestObject is an in-memory Object for tests.
type TestObject struct {
	data []byte
	err  error
}

func NewTestObject(data []byte) *TestObject {
	return &TestObject{data: data}
}

func NewTestObjectWithError() *TestObject {
	return &TestObject{err: errors.New("not found")}
}

func (t *TestObject) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}
