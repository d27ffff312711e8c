package deepface

import "errors"

var (
	ErrUnavailable     = errors.New("deepface service unavailable")
	ErrInvalidResponse = errors.New("invalid response from deepface")
)
