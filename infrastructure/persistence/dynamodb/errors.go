package dynamodb

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	pkgerrors "lexivault/pkg/errors"
)

// classifyError maps throttling and capacity failures to Unavailable so callers
// answer 503 instead of 500. Other errors are wrapped with the operation name.
func classifyError(op string, err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException",
			"RequestLimitExceeded", "TransactionInProgressException":
			return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
