// Package admind serves a read-only HTTP view of tracked IRC state:
// which channels the client is on and what their ban, exception, invite
// and quiet lists hold. It exists for dashboards, bots and operators who
// want to audit list state without touching the IRC connection.
package admind

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/presbrey/ircstate"
	"github.com/presbrey/ircstate/config"
)

// API is the introspection HTTP server
type API struct {
	client *ircstate.Client
	config *config.Config
	echo   *echo.Echo
}

// NewAPI creates the server and sets up its routes
func NewAPI(client *ircstate.Client, cfg *config.Config) *API {
	api := &API{
		client: client,
		config: cfg,
		echo:   echo.New(),
	}
	api.echo.HideBanner = true

	api.echo.GET("/api/state", api.handleState)
	api.echo.GET("/api/channels", api.handleChannels)
	api.echo.GET("/api/channels/:name/lists", api.handleLists)
	api.echo.GET("/api/channels/:name/lists/:mode", api.handleList)
	if cfg.API.Metrics {
		api.echo.GET("/metrics", echo.WrapHandler(ircstate.MetricsHandler()))
	}

	return api
}

// Start starts the server on the configured address
func (a *API) Start() error {
	return a.echo.Start(a.config.GetAPIListenAddress())
}

// Stop shuts the server down gracefully
func (a *API) Stop(ctx context.Context) error {
	log.Println("Stopping admind")
	return a.echo.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler, for tests and embedding
func (a *API) Handler() http.Handler {
	return a.echo
}

type entryJSON struct {
	Mask      string `json:"mask"`
	Setter    string `json:"setter"`
	Timestamp int64  `json:"timestamp"`
}

func toEntryJSON(entries []ircstate.ListEntry) []entryJSON {
	out := make([]entryJSON, len(entries))
	for i, e := range entries {
		out[i] = entryJSON{
			Mask:      e.Mask,
			Setter:    e.Setter.String(),
			Timestamp: e.Timestamp,
		}
	}
	return out
}

// handleState reports who we are and what the server has advertised
func (a *API) handleState(c echo.Context) error {
	if !a.authenticateRequest(c.Request()) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	isupport := a.client.ISupport()
	groups, haveModes := isupport.ChanModes()
	_, havePrefixes := isupport.Prefixes()

	state := map[string]interface{}{
		"nick":        a.client.State().Nick(),
		"casemapping": string(isupport.CaseMapping()),
		"ready": map[string]bool{
			"chanmodes": haveModes,
			"prefix":    havePrefixes,
		},
		"channels": len(a.client.State().Channels()),
	}
	if haveModes {
		state["list_modes"] = groups.ListModes()
	}

	return c.JSON(http.StatusOK, state)
}

// handleChannels lists the tracked channels with entry counts per list
func (a *API) handleChannels(c echo.Context) error {
	if !a.authenticateRequest(c.Request()) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	channels := make([]map[string]interface{}, 0)
	for _, name := range a.client.State().Channels() {
		ch := a.client.State().Lookup(name)
		if ch == nil {
			continue
		}

		counts := make(map[string]int)
		for _, mode := range ch.ListModeLetters() {
			counts[string(mode)] = len(ch.ListEntries(mode))
		}

		channels = append(channels, map[string]interface{}{
			"name":   ch.GetName(),
			"joined": ch.GetJoined(),
			"lists":  counts,
		})
	}

	return c.JSON(http.StatusOK, channels)
}

// handleLists returns every tracked list of one channel
func (a *API) handleLists(c echo.Context) error {
	if !a.authenticateRequest(c.Request()) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	ch := a.lookupChannel(c.Param("name"))
	if ch == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Channel not found")
	}

	lists := make(map[string][]entryJSON)
	for mode, entries := range ch.ListSnapshot() {
		lists[mode] = toEntryJSON(entries)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"name":  ch.GetName(),
		"lists": lists,
	})
}

// handleList returns one list of one channel
func (a *API) handleList(c echo.Context) error {
	if !a.authenticateRequest(c.Request()) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	mode := c.Param("mode")
	if len([]rune(mode)) != 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "Mode must be a single letter")
	}

	ch := a.lookupChannel(c.Param("name"))
	if ch == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Channel not found")
	}

	letter := []rune(mode)[0]
	return c.JSON(http.StatusOK, map[string]interface{}{
		"name":    ch.GetName(),
		"mode":    mode,
		"entries": toEntryJSON(ch.ListEntries(letter)),
	})
}

// lookupChannel resolves a URL channel name, tolerating a missing '#' so
// /api/channels/chan/lists works without escaping.
func (a *API) lookupChannel(name string) *ircstate.Channel {
	ch := a.client.State().Lookup(name)
	if ch == nil && !strings.HasPrefix(name, "#") {
		ch = a.client.State().Lookup("#" + name)
	}
	return ch
}

// authenticateRequest checks the bearer token. With no tokens configured
// the API is open; bind it to localhost in that case.
func (a *API) authenticateRequest(req *http.Request) bool {
	if len(a.config.API.BearerTokens) == 0 {
		return true
	}

	authHeader := req.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	for _, validToken := range a.config.API.BearerTokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(validToken)) == 1 {
			return true
		}
	}

	return false
}
