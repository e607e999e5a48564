package core

import (
	"errors"
)

var (
	ErrAssetNotFound  = errors.New("asset not found")
	ErrDuplicateName  = errors.New("name already registered")
	ErrLookupMiss     = errors.New("lookup miss")
	ErrGPUResource    = errors.New("gpu resource error")
	ErrInvalidCorner  = errors.New("invalid corner")
	ErrInvalidIndex   = errors.New("invalid index")
	ErrInvalidHitBox  = errors.New("invalid hitbox")
	ErrNotInitialized = errors.New("system not initialized")
	ErrUnknown        = errors.New("unknown")
)
