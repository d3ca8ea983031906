package httpapi

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/bio-photo/internal/advisor"
	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/common"
	"github.com/i474232898/bio-photo/internal/store"
	"github.com/i474232898/bio-photo/internal/weather"
	"github.com/i474232898/bio-photo/internal/weather/providers"
)

var validate = validator.New()

// SessionCookie carries a per-browser mock override set via POST /api/session.
const SessionCookie = "bio_photo_mock"

const sessionMaxAge = 7 * 24 * time.Hour

// RateCache is the exchange-rate cache surface exposed to the debug and
// clear endpoints.
type RateCache interface {
	ClearCache() int
	CacheStats() store.Stats
}

// ReverseGeocoder resolves coordinates to a place name.
type ReverseGeocoder interface {
	HasKey() bool
	Reverse(ctx context.Context, lat, lon float64) (providers.Place, error)
}

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Advisor *advisor.Advisor
	Weather *weather.Service
	// Rates and RateKey are nil when currency conversion is not wired.
	Rates   RateCache
	RateKey weather.KeyProber
	// Geocoder is nil when reverse lookups are not wired.
	Geocoder ReverseGeocoder
	Logger   zerolog.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	h := &handlers{deps: deps}

	api := app.Group("/api")
	api.Get("/recommendations/:city", h.recommendations)
	api.Post("/calculate", h.calculate)
	api.Get("/debug", h.debug)
	api.Post("/clear_cache", h.clearCache)
	api.Get("/fruits", h.fruits)
	api.Post("/session", h.session)
	api.Get("/geocode", h.geocode)

	app.Get("/recommendations/:city?", h.recommendationsPage)
	app.Get("/calculator/:city?", h.calculatorPage)
}

type handlers struct {
	deps Deps
}

func (h *handlers) recommendations(c *fiber.Ctx) error {
	var req recommendationsQuery
	if err := req.bind(c); err != nil {
		return err
	}
	mode, err := requestMode(c, c.Query("mock"))
	if err != nil {
		return err
	}

	res, err := h.deps.Advisor.Recommend(c.UserContext(), advisor.RecommendRequest{
		City:     req.City,
		Mode:     mode,
		TopN:     req.TopN,
		Currency: req.Currency,
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handlers) calculate(c *fiber.Ctx) error {
	var body calculateBody
	if err := c.BodyParser(&body); err != nil {
		return apperr.InvalidArgument("malformed request body: %v", err)
	}
	body.trim()
	if err := validate.Struct(body); err != nil {
		return apperr.InvalidArgument("%v", err)
	}

	explicit := ""
	if body.Mock != nil {
		explicit = strconv.FormatBool(*body.Mock)
	}
	mode, err := requestMode(c, explicit)
	if err != nil {
		return err
	}

	res, err := h.deps.Advisor.Calculate(c.UserContext(), body.toRequest(mode))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handlers) debug(c *fiber.Ctx) error {
	probe := false
	if v := c.Query("probe"); v != "" {
		b, ok := common.ParseBool(v)
		if !ok {
			return apperr.InvalidArgument("probe must be a boolean, got %q", v)
		}
		probe = b
	}

	ctx := c.UserContext()
	keys := h.deps.Weather.ValidateKeys(ctx, probe)
	if h.deps.RateKey != nil {
		keys = append(keys, weather.CheckKey(ctx, h.deps.RateKey, probe))
	}

	caches := fiber.Map{"weather": h.deps.Weather.CacheStats()}
	if h.deps.Rates != nil {
		caches["rates"] = h.deps.Rates.CacheStats()
	}

	out := fiber.Map{
		"use_mock":      h.deps.Weather.UseMock(),
		"default_mode":  h.deps.Weather.ResolveMode(weather.ModeAuto),
		"providers":     h.deps.Weather.ProviderNames(),
		"keys":          keys,
		"probed":        probe,
		"cache":         caches,
		"base_currency": h.deps.Advisor.BaseCurrency(),
	}
	if m, ok := sessionMock(c); ok {
		out["session_mock"] = m
	}
	return c.JSON(out)
}

func (h *handlers) clearCache(c *fiber.Ctx) error {
	weatherEntries := h.deps.Weather.ClearCache()
	rateEntries := 0
	if h.deps.Rates != nil {
		rateEntries = h.deps.Rates.ClearCache()
	}
	h.deps.Logger.Info().
		Int("weather_entries", weatherEntries).
		Int("rate_entries", rateEntries).
		Msg("caches cleared")

	return c.JSON(fiber.Map{
		"status":          "cleared",
		"weather_entries": weatherEntries,
		"rate_entries":    rateEntries,
	})
}

func (h *handlers) fruits(c *fiber.Ctx) error {
	cat := h.deps.Advisor.Catalog()
	return c.JSON(fiber.Map{
		"fruits":           cat.List(),
		"devices":          cat.Devices(),
		"panel_categories": cat.PanelCategories(),
	})
}

func (h *handlers) session(c *fiber.Ctx) error {
	var body sessionBody
	if err := c.BodyParser(&body); err != nil {
		return apperr.InvalidArgument("malformed request body: %v", err)
	}

	if body.Mock == nil {
		c.ClearCookie(SessionCookie)
		return c.JSON(fiber.Map{"session_mock": nil, "mode": h.deps.Weather.ResolveMode(weather.ModeAuto)})
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    strconv.FormatBool(*body.Mock),
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"session_mock": *body.Mock, "mode": weather.ModeFromMock(*body.Mock)})
}

func (h *handlers) geocode(c *fiber.Ctx) error {
	var q geocodeQuery
	if err := q.bind(c); err != nil {
		return err
	}

	out := geocodeResponse{Lat: q.lat, Lon: q.lon}
	if h.deps.Geocoder == nil || !h.deps.Geocoder.HasKey() {
		return c.JSON(out)
	}

	place, err := h.deps.Geocoder.Reverse(c.UserContext(), q.lat, q.lon)
	if errors.Is(err, apperr.ErrLocationNotFound) {
		return c.JSON(out)
	}
	if err != nil {
		return err
	}
	if place.City != "" {
		out.City = &place.City
	}
	if place.Country != "" {
		out.Country = &place.Country
	}
	return c.JSON(out)
}

// requestMode resolves the weather mode for a request: an explicit mock
// flag wins, then the session cookie, then the service default.
func requestMode(c *fiber.Ctx, explicit string) (weather.Mode, error) {
	if explicit != "" {
		b, ok := common.ParseBool(explicit)
		if !ok {
			return "", apperr.InvalidArgument("mock must be a boolean, got %q", explicit)
		}
		return weather.ModeFromMock(b), nil
	}
	if b, ok := sessionMock(c); ok {
		return weather.ModeFromMock(b), nil
	}
	return weather.ModeAuto, nil
}

// sessionMock reads the session override; malformed cookies are ignored.
func sessionMock(c *fiber.Ctx) (bool, bool) {
	v := c.Cookies(SessionCookie)
	if v == "" {
		return false, false
	}
	return common.ParseBool(v)
}

// recommendationsQuery holds the path and query parameters of the
// recommendations endpoints.
type recommendationsQuery struct {
	City     string `validate:"required"`
	TopN     int    `validate:"gte=1"`
	Currency string `validate:"omitempty,len=3,alpha"`
}

func (q *recommendationsQuery) bind(c *fiber.Ctx) error {
	q.City = cityParam(c)
	q.Currency = strings.TrimSpace(c.Query("currency"))
	q.TopN = advisor.DefaultTopN
	if raw := strings.TrimSpace(c.Query("top_n")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return apperr.InvalidArgument("top_n must be an integer, got %q", raw)
		}
		q.TopN = n
	}

	if err := validate.Struct(q); err != nil {
		return apperr.InvalidArgument("%v", err)
	}
	return nil
}

// calculateBody is the JSON body of POST /api/calculate.
type calculateBody struct {
	City           string  `json:"city" validate:"required"`
	Fruit          string  `json:"fruit"`
	Mock           *bool   `json:"mock"`
	PanelSize      float64 `json:"panel_size" validate:"gte=0"`
	DeviceCategory string  `json:"device_category"`
	Currency       string  `json:"currency" validate:"omitempty,len=3,alpha"`
}

func (b *calculateBody) trim() {
	b.City = strings.TrimSpace(b.City)
	b.Fruit = strings.TrimSpace(b.Fruit)
	b.DeviceCategory = strings.ToLower(strings.TrimSpace(b.DeviceCategory))
	b.Currency = strings.TrimSpace(b.Currency)
}

func (b calculateBody) toRequest(mode weather.Mode) advisor.CalculateRequest {
	return advisor.CalculateRequest{
		City:           b.City,
		Fruit:          b.Fruit,
		Mode:           mode,
		PanelSizeSqft:  b.PanelSize,
		DeviceCategory: b.DeviceCategory,
		Currency:       b.Currency,
	}
}

// geocodeQuery holds the coordinates of GET /api/geocode.
type geocodeQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`

	lat, lon float64
}

func (q *geocodeQuery) bind(c *fiber.Ctx) error {
	q.Lat = strings.TrimSpace(c.Query("lat"))
	q.Lon = strings.TrimSpace(c.Query("lon"))
	if err := validate.Struct(q); err != nil {
		return apperr.InvalidArgument("lat and lon are required coordinates: %v", err)
	}

	var err error
	if q.lat, err = strconv.ParseFloat(q.Lat, 64); err != nil {
		return apperr.InvalidArgument("invalid lat %q", q.Lat)
	}
	if q.lon, err = strconv.ParseFloat(q.Lon, 64); err != nil {
		return apperr.InvalidArgument("invalid lon %q", q.Lon)
	}
	return nil
}

// geocodeResponse leaves city and country null when they are unknown.
type geocodeResponse struct {
	City    *string `json:"city"`
	Country *string `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type sessionBody struct {
	Mock *bool `json:"mock"`
}

// cityParam reads the city from the path, falling back to ?city=.
func cityParam(c *fiber.Ctx) string {
	if city, err := url.PathUnescape(c.Params("city")); err == nil && strings.TrimSpace(city) != "" {
		return strings.TrimSpace(city)
	}
	return strings.TrimSpace(c.Query("city"))
}
