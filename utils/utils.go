package utils

import (
	"encoding/json"
	"fmt"
	"net"
	"reflect"
	"runtime"
)

func DefaultIfZero[T any](v T, fallback T) T {
	if reflect.ValueOf(v).IsZero() {
		return fallback
	}
	return v
}

func Pointer[T any](v T) *T {
	return &v
}

// ListenAddrToURL returns a URL a local client can use to reach listen.
func ListenAddrToURL(https bool, listen string) string {
	scheme := "http"
	if https {
		scheme = "https"
	}

	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return fmt.Sprintf("%s://%s", scheme, listen)
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, port))
}

// Concurrency returns n, or the number of CPUs when n is zero.
func Concurrency(n uint32) int {
	if n == 0 {
		return runtime.NumCPU()
	}
	return int(n)
}

// JSONString renders v as compact JSON for log fields. Values that cannot be
// encoded are rendered with %v.
func JSONString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
