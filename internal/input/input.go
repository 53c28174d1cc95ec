package input

import (
	"bufio"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
)

// Line is one entry of the URL list file, kept with its 1-based line number
// so malformed entries can be reported against the source file.
type Line struct {
	URL     string
	LineNum int
}

// ReadURLList reads a plain text file with one URL per line. Blank lines are
// ignored. Lines that do not parse as absolute http(s) URLs are returned
// separately so the caller can log and skip them without aborting the run.
func ReadURLList(path string) (urls []Line, malformed []Line, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close URL list: %v", closeErr)
		}
	}()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		if !isHTTPURL(raw) {
			malformed = append(malformed, Line{URL: raw, LineNum: lineNum})
			continue
		}
		urls = append(urls, Line{URL: raw, LineNum: lineNum})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read URL list: %w", err)
	}

	return urls, malformed, nil
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
