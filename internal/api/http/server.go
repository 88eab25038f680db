package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"github.com/spec-kit/roster-service/internal/api/http/views"
)

// NewApp creates the fiber app with the embedded HTML views.
func NewApp(name string) *fiber.App {
	engine := html.NewFileSystem(nethttp.FS(views.FS), ".html")
	return fiber.New(fiber.Config{
		AppName:               name,
		Views:                 engine,
		DisableStartupMessage: true,
	})
}
