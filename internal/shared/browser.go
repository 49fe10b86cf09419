package shared

import (
	"fmt"
	"os/exec"
	"runtime"
	"slices"
)

// browserOpeners maps GOOS to the command that hands a URL to the desktop's default browser.
var browserOpeners = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// BrowserCommand returns the argv that opens url on goos.
func BrowserCommand(goos, url string) ([]string, error) {
	opener, ok := browserOpeners[goos]
	if !ok {
		return nil, fmt.Errorf("%w: cannot open a browser on %s, visit %s manually", ErrUnsupportedOperation, goos, url)
	}
	return append(slices.Clone(opener), url), nil
}

// OpenBrowser starts the default browser on url, used to send the user to the Spotify consent page.
// It does not wait for the browser to exit.
func OpenBrowser(url string) error {
	argv, err := BrowserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := exec.Command(argv[0], argv[1:]...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
