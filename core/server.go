package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Verifier interface {
	Verify(ctx context.Context) (Report, error)
	Name() string
	GetRateLimiter() *rate.Limiter
}

type Server struct {
	app  *fiber.App
	addr string
}

func NewServer(host string, port int, verifiers ...Verifier) *Server {
	addr := fmt.Sprintf("%s:%d", host, port)
	serv := Server{
		app:  fiber.New(fiber.Config{DisableStartupMessage: true}),
		addr: addr,
	}

	for _, verifier := range verifiers {
		locVerifier := verifier
		limiter := verifier.GetRateLimiter()
		prefix := "/" + strings.ToLower(locVerifier.Name())

		// Runs share the screenshot path, one at a time
		var mu sync.Mutex
		var lastShot string

		serv.app.Get(prefix+"/verify", func(c *fiber.Ctx) error {
			if limiter != nil && !limiter.Allow() {
				logrus.Warnf("Rate limit exceeded for %s run", locVerifier.Name())
				return fiber.NewError(fiber.StatusTooManyRequests, "Too many verification runs, retry later")
			}

			mu.Lock()
			defer mu.Unlock()

			report, err := locVerifier.Verify(c.UserContext())
			// A failed run leaves the previous capture on disk
			if report.Stage == StageCaptured && report.Screenshot != "" {
				lastShot = report.Screenshot
			}
			if err != nil {
				logrus.Errorf("Error during %s run: %s", locVerifier.Name(), err)
				return c.Status(StatusFor(err)).JSON(report)
			}

			return c.JSON(report)
		})

		serv.app.Get(prefix+"/screenshot", func(c *fiber.Ctx) error {
			mu.Lock()
			path := lastShot
			mu.Unlock()

			if path == "" {
				return fiber.NewError(fiber.StatusNotFound, "No screenshot captured yet")
			}
			if _, err := os.Stat(path); err != nil {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return c.SendFile(path)
		})
	}

	return &serv
}

// StatusFor maps a scenario error to the HTTP status returned by the API
func StatusFor(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, ErrAssertion):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrNavigation):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusServiceUnavailable
	}
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
