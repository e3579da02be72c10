package newsclient

// Route carries the access rules attached to a navigable destination.
type Route struct {
	Path         string
	RequiresAuth bool
	GuestOnly    bool
}

// Gate decides whether the current session may enter a route. When entry is
// denied it returns the path the caller should be sent to instead: login for
// protected routes, home for guest-only routes reached while authenticated.
func (c *Client) Gate(route Route) (allowed bool, redirect string) {
	authenticated := c.session.IsAuthenticated()

	if route.RequiresAuth && !authenticated {
		return false, "/login"
	}
	if route.GuestOnly && authenticated {
		return false, "/home"
	}
	return true, ""
}
