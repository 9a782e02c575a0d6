package pagination

import (
	"fmt"

	svcErr "github.com/oggyb/campus-match/internal/errors"
)

// ErrInvalidToken is returned for tokens that do not decode to a Cursor.
var ErrInvalidToken = fmt.Errorf("invalid pagination token: %w", svcErr.ErrInvalidArgument)
