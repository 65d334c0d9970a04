package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/fixora/marketplace/application/port/outbound"
)

// mapWriteError turns constraint violations and serialization failures into
// outbound.ErrConflict so the caller can retry the whole transaction.
func mapWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return fmt.Errorf("%s: %w (%s)", op, outbound.ErrConflict, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
