// Package session decides which root screen a client should show.
package session

// Screen is one of the three root screens of the app
type Screen string

const (
	ScreenOnboarding    Screen = "onboarding"
	ScreenLogin         Screen = "login"
	ScreenAuthenticated Screen = "authenticated"
)

// State is what the client knows about its session
type State struct {
	Onboarded bool   `json:"onboarded"`
	UserID    string `json:"userId,omitempty"`
}

// Route picks the root screen. Onboarding always comes first, then a
// signed-in user goes straight to the app.
func Route(s State) Screen {
	switch {
	case !s.Onboarded:
		return ScreenOnboarding
	case s.UserID == "":
		return ScreenLogin
	default:
		return ScreenAuthenticated
	}
}
