package arena

import "errors"

var (
	// ErrArenaTooSmall indicates the requested segment cannot hold the
	// lock word and the head sentinel.
	ErrArenaTooSmall = errors.New("arena: segment too small for lock word and sentinel")

	// ErrBadRef indicates a ref that does not name a live block.
	ErrBadRef = errors.New("arena: ref is not a live block")
)
