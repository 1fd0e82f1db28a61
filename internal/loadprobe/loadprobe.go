// Package loadprobe samples CPU utilization for the worker's GET /load
// endpoint (spec §4.6). There is no third-party CPU-stat reader in the
// reference dependency set, so this reads /proc/stat directly, the same
// two-sample-delta technique the original implementation used via its
// system-info crate.
package loadprobe

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type sample struct {
	idle  uint64
	total uint64
}

func readSample() (sample, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return sample{}, fmt.Errorf("loadprobe: open /proc/stat: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return sample{}, fmt.Errorf("loadprobe: empty /proc/stat")
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) < 5 || fields[0] != "cpu" {
		return sample{}, fmt.Errorf("loadprobe: unexpected /proc/stat format")
	}

	var total uint64
	var idle uint64
	for i, f := range fields[1:] {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			continue
		}
		total += v
		if i == 3 { // idle field
			idle = v
		}
	}
	return sample{idle: idle, total: total}, nil
}

// Percent returns CPU utilization in [0, 100], sampling /proc/stat twice
// across interval.
func Percent(interval time.Duration) (float64, error) {
	first, err := readSample()
	if err != nil {
		return 0, err
	}
	time.Sleep(interval)
	second, err := readSample()
	if err != nil {
		return 0, err
	}

	totalDelta := second.total - first.total
	idleDelta := second.idle - first.idle
	if totalDelta == 0 {
		return 0, nil
	}

	busy := float64(totalDelta-idleDelta) / float64(totalDelta) * 100
	if busy < 0 {
		busy = 0
	}
	if busy > 100 {
		busy = 100
	}
	return busy, nil
}
