// FilePath: cmd/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aquasense/tdshub/internal/config"
	"github.com/aquasense/tdshub/internal/server"
	tm "github.com/buger/goterm"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	// Initialize version info
	nuts.InitVersion()
	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	nuts.L.Infof("[Main] Starting TDS Hub v%s", nuts.GetVersion())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create and start server
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen and draws the logo.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"  ______ ____  _____    __  __      __  ",
		" /_  __// __ \\/ ___/   / / / /_  __/ /_ ",
		"  / /  / / / /\\__ \\   / /_/ / / / / __ \\",
		" / /  / /_/ /___/ /  / __  / /_/ / /_/ /",
		"/_/  /_____//____/  /_/ /_/\\__,_/_.___/ ",
		"..........................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
