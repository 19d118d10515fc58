// FilePath: server/clima/cmd/main.go
package main

import (
	"fmt"
	"os"

	tm "github.com/buger/goterm"
	"github.com/itsatony/w4b_v3/server/clima/internal/config"
	"github.com/itsatony/w4b_v3/server/clima/internal/server"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	nuts.InitVersion()
	showBanner()

	if err := run(); err != nil {
		nuts.L.Errorf("[Main] %v", err)
		os.Exit(1)
	}
}

// run blocks until the station receives SIGINT or SIGTERM.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	nuts.L.Infof("[Main] Clima station v%s, broker %s, database %s", nuts.GetVersion(), cfg.MQTT.URL, cfg.Database.Driver)
	nuts.L.Infof("[Main] Reports at %s, pruning at %s (UTC%+d), keeping readings for %v",
		cfg.Schedule.ReportAt, cfg.Schedule.PruneAt, cfg.Schedule.TimezoneOffsetHours, cfg.Retention.MaxAge)

	return server.New(cfg).Start()
}

func showBanner() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()

	banner := []string{
		"",
		"      _ _                 ",
		"  ___| (_)_ __ ___   __ _ ",
		" / __| | | '_ ` _ \\ / _` |",
		"| (__| | | | | | | | (_| |",
		" \\___|_|_|_| |_| |_|\\__,_|",
		"station  " + nuts.GetVersion(),
		"",
	}
	for _, line := range banner {
		fmt.Println(line)
	}
}
