package domain

import "errors"

var (
	ErrInvalidIdentity          = errors.New("member id or session id is required")
	ErrOutfitNotFound           = errors.New("outfit not found")
	ErrSimilarityNotFound       = errors.New("similar outfits not found")
	ErrEmptyCollection          = errors.New("no liked outfits")
	ErrInsufficientSimilarItems = errors.New("not enough similar outfits to sample")
)
