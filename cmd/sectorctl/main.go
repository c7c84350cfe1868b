// sectorctl pushes a sector table JSON file to a running backend through the
// admin import endpoint.
//
// Usage:
//
//	sectorctl -file sectors.json -url http://localhost:8080 -secret $ADMIN_SECRET
//
// The file holds the full desired wheel: every listed ordinal is upserted and
// every other ordinal is deactivated.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/glowtap/luckywheel-backend/wheel"
)

func main() {
	var (
		file   = flag.String("file", "sectors.json", "path to the sector table JSON file")
		url    = flag.String("url", "http://localhost:8080", "backend base URL")
		secret = flag.String("secret", os.Getenv("ADMIN_SECRET"), "admin secret (defaults to ADMIN_SECRET)")
	)
	flag.Parse()

	if *secret == "" {
		fatal("admin secret is required (-secret or ADMIN_SECRET)")
	}
	raw, err := os.ReadFile(*file)
	if err != nil {
		fatal("read %s: %v", *file, err)
	}
	var sectors []wheel.ImportSector
	if err := json.Unmarshal(raw, &sectors); err != nil {
		fatal("parse %s: %v", *file, err)
	}
	if len(sectors) == 0 {
		fatal("%s contains no sectors", *file)
	}

	body, err := json.Marshal(map[string]any{"sectors": sectors})
	if err != nil {
		fatal("encode payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, *url+"/api/admin/sectors/import", bytes.NewReader(body))
	if err != nil {
		fatal("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Secret", *secret)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fatal("call backend: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fatal("import rejected (%d): %s", resp.StatusCode, bytes.TrimSpace(out))
	}
	fmt.Printf("imported %d sectors: %s\n", len(sectors), bytes.TrimSpace(out))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "sectorctl: "+format+"\n", args...)
	os.Exit(1)
}
