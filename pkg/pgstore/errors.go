package pgstore

import "errors"

var (
	ErrEmailTaken   = errors.New("pgstore: email already belongs to another account")
	ErrDuplicateKey = errors.New("pgstore: api key already exists")
)

var errShortCopy = errors.New("pgstore: copied fewer rows than requested")
