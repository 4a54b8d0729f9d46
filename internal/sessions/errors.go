package sessions

import (
	"fmt"

	apierrors "codeberg.org/codepair/server/internal/errors"
)

var (
	ErrEmptyEdit      = fmt.Errorf("%w: code cannot be empty", apierrors.ErrValidation)
	ErrCodeTooLarge   = fmt.Errorf("%w: code exceeds maximum size", apierrors.ErrValidation)
	ErrReadOnly       = fmt.Errorf("%w: mentor has read-only access", apierrors.ErrValidation)
	ErrNotParticipant = fmt.Errorf("%w: connection is not part of this session", apierrors.ErrRaceRecovered)
)
