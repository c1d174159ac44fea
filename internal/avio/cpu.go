package avio

import (
	"github.com/shirou/gopsutil/v3/cpu"
)

// ConcurrencyFromCPUs picks a default admission limit of half the
// available logical CPUs (minimum 1), counting cores the way gopsutil
// reports them rather than trusting runtime.GOMAXPROCS, which reflects a
// Go scheduler setting rather than host capacity.
func ConcurrencyFromCPUs() int {
	counts, err := cpu.Counts(true)
	if err != nil || counts <= 0 {
		return 1
	}
	n := counts / 2
	if n < 1 {
		n = 1
	}
	return n
}
