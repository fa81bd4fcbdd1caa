// Package statsview serves live runtime charts (heap, goroutines, GC) of the
// running emulator over HTTP.
package statsview

import (
	"fmt"
	"log/slog"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const (
	DefaultAddr = "localhost:12600"
	chartsPath  = "/debug/statsview"
)

// URL is the charts page served for addr.
func URL(addr string) string {
	if addr == "" {
		addr = DefaultAddr
	}
	return fmt.Sprintf("http://%s%s", addr, chartsPath)
}

// Serve starts the charts server on addr in the background and returns the
// page URL. The server lives until the process exits.
func Serve(addr string) string {
	if addr == "" {
		addr = DefaultAddr
	}

	viewer.SetConfiguration(viewer.WithAddr(addr))
	views := statsview.New()
	go views.Start()

	slog.Debug("statsview: serving", "addr", addr)
	return URL(addr)
}
