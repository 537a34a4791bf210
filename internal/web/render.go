// Package web serves the server-rendered pages and owns the template engine
// shared by every package that renders HTML.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"climblog/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewsFS embed.FS

//go:embed static
var staticFS embed.FS

const layout = "layouts/main"

func NewEngine() *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

// StaticFS holds the page scripts, rooted so that "dashboard.js" is at the top.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Render draws a page inside the main layout. Pending flashes are consumed.
func Render(c *fiber.Ctx, sessions *session.Store, name string, bind fiber.Map) error {
	if bind == nil {
		bind = fiber.Map{}
	}
	sess := session.FromCtx(c)
	bind["LoggedIn"] = sess.LoggedIn()
	bind["Username"] = sess.Username
	bind["Flashes"] = sessions.Flashes(c)
	return c.Render(name, bind, layout)
}
