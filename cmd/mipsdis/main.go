package main

import (
	"log/slog"
	"net/http"

	_ "net/http/pprof" // profiling

	"github.com/xyproto/env/v2"

	"mipsdis/internal/mipsdis/cmd"
	"mipsdis/internal/mipsdis/log"
)

func main() {
	defer log.RecoverPanic("main", func() {
		slog.Error("Application terminated due to unhandled panic")
	})

	if env.Has("MIPSDIS_PROFILE") {
		addr := env.Str("MIPSDIS_PROFILE_ADDR", "localhost:6060")
		go func() {
			slog.Info("Serving pprof", "addr", addr)
			if httpErr := http.ListenAndServe(addr, nil); httpErr != nil {
				slog.Error("Failed to pprof listen", "error", httpErr)
			}
		}()
	}

	cmd.Execute()
}
