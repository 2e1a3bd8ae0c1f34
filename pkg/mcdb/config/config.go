package config

import (
	"os"
	"strconv"
	"sync"
)

// MinTxRetry is the fewest attempts a catalog transaction gets.
const MinTxRetry = 3

var (
	txRetryOnce sync.Once
	txRetry     int
)

// GetTxRetry returns the number of attempts for a catalog transaction, read
// once from MC_TX_RETRY.
func GetTxRetry() int {
	txRetryOnce.Do(func() {
		txRetry = parseTxRetry(os.Getenv("MC_TX_RETRY"))
	})

	return txRetry
}

func parseTxRetry(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < MinTxRetry {
		return MinTxRetry
	}

	return n
}
