package frontend

import "github.com/maxence-charriere/go-app/v10/pkg/app"

// Routes registers the pages. Both the WASM binary and the host server call
// it, so server-side prerendering knows the same paths.
func Routes() {
	app.Route("/", func() app.Composer { return &Home{} })
	app.Route("/login", func() app.Composer { return &Login{} })
	app.Route("/register", func() app.Composer { return &Register{} })
	app.Route("/setup", func() app.Composer { return &Table{} })
	app.RouteWithRegexp("^/game/.*", func() app.Composer { return &Game{} })
}
