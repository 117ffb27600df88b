package checkout

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// Launcher shows a checkout page to the payer.
type Launcher interface {
	Open(url string) error
}

type LauncherFunc func(url string) error

func (f LauncherFunc) Open(url string) error {
	return f(url)
}

// PrintLauncher writes the checkout URL for the operator to open.
type PrintLauncher struct {
	Out io.Writer
}

func (p *PrintLauncher) Open(url string) error {
	log.WithField("url", url).Info("checkout page ready")
	_, err := fmt.Fprintf(p.Out, "Complete the payment in your browser: %s\n", url)
	return err
}

// BrowserLauncher opens the page with the platform's URL handler.
type BrowserLauncher struct{}

func (BrowserLauncher) Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
