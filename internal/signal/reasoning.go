package signal

import (
	"fmt"

	"github.com/sawpanic/capitolflow/internal/domain"
)

func baselineReason(tx domain.TransactionType, alpha5D, alpha20D float64) string {
	return fmt.Sprintf("baseline(%s): 5d=%.4f 20d=%.4f", tx, alpha5D, alpha20D)
}

func ratioReason(factor string, bucket interface{}, mult float64) string {
	return fmt.Sprintf("%s=%v -> x%.2f", factor, bucket, mult)
}
