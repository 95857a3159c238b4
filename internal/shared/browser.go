package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var (
	getRuntime = func() string { return runtime.GOOS }
	startCmd   = func(cmd *exec.Cmd) error { return cmd.Start() }
)

// BrowserCommand returns the program and arguments that open url on goos.
func BrowserCommand(goos, url string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("%w: cannot open a browser on %s", ErrNotImplemented, goos)
	}
}

// OpenBrowser opens the default system browser at url without waiting for it to exit.
func OpenBrowser(url string) error {
	name, args, err := BrowserCommand(getRuntime(), url)
	if err != nil {
		return err
	}

	if err := startCmd(exec.Command(name, args...)); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
