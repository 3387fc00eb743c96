package service

import "errors"

// Hard-stop validation errors. Both are returned before any read or write
// happens.
var (
	// ErrNoEntrants means the entry request carried no horse ids.
	ErrNoEntrants = errors.New("no horses submitted for entry")

	// ErrNoShow means the entry request carried no show id.
	ErrNoShow = errors.New("no show specified")
)
