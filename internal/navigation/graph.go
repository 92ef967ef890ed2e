// internal/navigation/graph.go
package navigation

// Graph is a set of screens shown for one session situation
type Graph string

const (
	GraphSplash Graph = "splash"
	GraphPublic Graph = "public"
	GraphAuth   Graph = "auth"
	GraphClient Graph = "client"
	GraphArtist Graph = "artist"
	GraphAdmin  Graph = "admin"
)

type Screen string

const (
	ScreenSplash Screen = "Splash"

	// Public
	ScreenHome         Screen = "Home"
	ScreenArtistList   Screen = "ArtistList"
	ScreenArtistDetail Screen = "ArtistDetail"

	// Auth
	ScreenLogin      Screen = "Login"
	ScreenChooseRole Screen = "ChooseRole"
	ScreenRegister   Screen = "Register"

	// Client
	ScreenClientHome  Screen = "ClientHome"
	ScreenBookingForm Screen = "BookingForm"

	// Artist
	ScreenArtistHome  Screen = "ArtistHome"
	ScreenMyServices  Screen = "MyServices"
	ScreenServiceForm Screen = "ServiceForm"

	// Admin
	ScreenAdminHome      Screen = "AdminHome"
	ScreenPendingArtists Screen = "PendingArtists"
)

// first screen of each graph is its root
var graphScreens = map[Graph][]Screen{
	GraphSplash: {ScreenSplash},
	GraphPublic: {ScreenHome, ScreenArtistList, ScreenArtistDetail},
	GraphAuth:   {ScreenLogin, ScreenChooseRole, ScreenRegister},
	GraphClient: {ScreenClientHome, ScreenArtistDetail, ScreenBookingForm},
	GraphArtist: {ScreenArtistHome, ScreenMyServices, ScreenServiceForm},
	GraphAdmin:  {ScreenAdminHome, ScreenPendingArtists},
}

var nestedGraphs = map[Graph][]Graph{
	GraphPublic: {GraphAuth},
}

// Screens lists the graph's own screens, root first
func (g Graph) Screens() []Screen {
	return append([]Screen(nil), graphScreens[g]...)
}

// Root is the screen a fresh stack starts on
func (g Graph) Root() Screen {
	screens := graphScreens[g]
	if len(screens) == 0 {
		return ""
	}
	return screens[0]
}

// Nested returns the graphs reachable from inside g
func (g Graph) Nested() []Graph {
	return append([]Graph(nil), nestedGraphs[g]...)
}

// Reachable reports whether s can be pushed while g is active
func (g Graph) Reachable(s Screen) bool {
	for _, candidate := range graphScreens[g] {
		if candidate == s {
			return true
		}
	}
	for _, nested := range nestedGraphs[g] {
		if nested.Reachable(s) {
			return true
		}
	}
	return false
}
