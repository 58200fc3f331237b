package middleware

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Logger writes one access line per request; JSON in prod to match the app logs.
func Logger() fiber.Handler {
	return accessLogger(os.Getenv("APP_ENV"), os.Stdout)
}

func accessLogger(env string, out io.Writer) fiber.Handler {
	if env == "prod" {
		return logger.New(logger.Config{
			Format:     `{"time":"${time}","ip":"${ip}","method":"${method}","path":"${path}","status":${status},"latency":"${latency}"}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "Local",
			Output:     out,
			Next:       skipProbes,
		})
	}
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
		Output:     out,
		Next:       skipProbes,
	})
}

// skipProbes keeps scrapes and health checks out of the access log.
func skipProbes(c *fiber.Ctx) bool {
	p := c.Path()
	return p == "/metrics" || p == "/healthz"
}

// Recover turns handler panics into 500s instead of dropping the connection.
func Recover() fiber.Handler {
	return recover.New()
}
