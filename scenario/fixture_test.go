package scenario

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

const drivePage = `<!DOCTYPE html>
<html><body>
<div class="taskbar">
  <button aria-label="Start">S</button>
  <button aria-label="Google Drive"><svg width="24" height="24"><rect width="24" height="24"/></svg></button>
</div>
</body></html>`

const noDrivePage = `<!DOCTYPE html>
<html><body><div class="taskbar"><button aria-label="Start">S</button><button>Gmail</button></div></body></html>`

const hiddenDrivePage = `<!DOCTYPE html>
<html><body><button aria-label="Google Drive" style="visibility:hidden">D</button></body></html>`

const twoDrivesPage = `<!DOCTYPE html>
<html><body><button>Google Drive</button><button title="Open Google Drive files"></button></body></html>`

// lateDrivePage inserts the button some time after the load event
const lateDrivePage = `<!DOCTYPE html>
<html><body><div id="taskbar"></div>
<script>
setTimeout(function () {
  var b = document.createElement("button");
  b.setAttribute("aria-label", "Google Drive");
  b.textContent = "D";
  document.getElementById("taskbar").appendChild(b);
}, %d);
</script>
</body></html>`

func delayedDrivePage(delay time.Duration) string {
	return fmt.Sprintf(lateDrivePage, delay.Milliseconds())
}

// serveFixture starts a web app on an ephemeral port serving html at the root
func serveFixture(t *testing.T, html string) string {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html")
		return c.SendString(html)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })

	return "http://" + ln.Addr().String()
}

// deadAddress returns a URL nothing listens on
func deadAddress(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return "http://" + addr
}
