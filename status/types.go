package status

import (
	"fmt"
	"runtime"
)

type HealthResponse struct {
	Status     string                  `json:"status"`
	Components map[string]HealthResult `json:"components"`
}

type HealthResult struct {
	Status string  `json:"status"`
	Error  *string `json:"error,omitempty"`
}

type StatusResponse struct {
	Version string       `json:"version"`
	NodeID  string       `json:"node_id,omitempty"`
	UpTime  string       `json:"uptime"`
	Runtime RuntimeStats `json:"runtime"`
	Memory  MemoryStats  `json:"memory"`
	Worker  any          `json:"worker,omitempty"`
}

type RuntimeStats struct {
	Go         string `json:"go"`
	Goroutines int    `json:"goroutines"`
	CPUs       int    `json:"cpus"`
}

// MiB is a memory amount reported as "12.34 MiB".
type MiB float64

func (m MiB) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%.2f MiB", float64(m))), nil
}

func BytesToMiB(bytes uint64) MiB {
	return MiB(float64(bytes) / 1024 / 1024)
}

type MemoryStats struct {
	Alloc       MiB   `json:"alloc"`
	Sys         MiB   `json:"sys"`
	HeapAlloc   MiB   `json:"heap_alloc"`
	HeapObjects int64 `json:"heap_objects"`
	GC          int64 `json:"gc"`
}

func readMemoryStats() MemoryStats {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return MemoryStats{
		Alloc:       BytesToMiB(stats.Alloc),
		Sys:         BytesToMiB(stats.Sys),
		HeapAlloc:   BytesToMiB(stats.HeapAlloc),
		HeapObjects: int64(stats.HeapObjects),
		GC:          int64(stats.NumGC),
	}
}
