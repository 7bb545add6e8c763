package utils

import "sync"

// NoCopy prevents copying structs by accident. Adding it to a struct will cause go vet to flag it as an error when
// you try to copy the struct. Writers and readers hold file handles and cursors which must not be duplicated.
type NoCopy struct{}

// NoCopy implements sync.Locker.
var _ sync.Locker = (*NoCopy)(nil)

func (n *NoCopy) Lock() {}

func (n *NoCopy) Unlock() {}
