package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/ski-conditions-aggregation/internal/conditions"
	"github.com/i474232898/ski-conditions-aggregation/internal/store"
)

var validate = validator.New()

// Pipeline is what the handlers need from conditions.Service.
type Pipeline interface {
	Trigger(ctx context.Context) (conditions.TriggerResult, error)
	Latest(ctx context.Context) (conditions.Snapshot, error)
}

const errNoData = "no data available yet"

// RegisterRoutes wires the HTTP handlers into the Fiber app. An empty secret
// leaves the trigger unauthenticated.
func RegisterRoutes(app *fiber.App, pipeline Pipeline, secret string) {
	api := app.Group("/api")

	trigger := func(c *fiber.Ctx) error {
		if !authorized(c, secret) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok":    false,
				"error": "unauthorized",
			})
		}

		result, err := pipeline.Trigger(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"ok":    false,
				"runId": result.RunID,
				"error": err.Error(),
			})
		}
		return c.JSON(result)
	}
	api.Post("/scrape", trigger)
	api.Get("/scrape", trigger)

	api.Get("/conditions", func(c *fiber.Ctx) error {
		snapshot, ok, err := latest(c, pipeline)
		if !ok {
			return err
		}
		return c.JSON(conditionsResponse{OK: true, Snapshot: snapshot})
	})

	api.Get("/conditions/:name", func(c *fiber.Ctx) error {
		req := mountainParams{Name: c.Params("name")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, ok, err := latest(c, pipeline)
		if !ok {
			return err
		}
		rec, found := snapshot.Find(req.canonical())
		if !found {
			return fiber.NewError(fiber.StatusNotFound, "no conditions for requested mountain")
		}
		return c.JSON(fiber.Map{
			"ok":        true,
			"scrapedAt": snapshot.ScrapedAt,
			"storedAt":  snapshot.StoredAt,
			"mountain":  rec,
		})
	})
}

// RegisterMetrics exposes gatherer in the Prometheus text format.
func RegisterMetrics(app *fiber.App, gatherer prometheus.Gatherer) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// conditionsResponse is the stored snapshot, verbatim, plus an ok flag.
type conditionsResponse struct {
	OK bool `json:"ok"`
	conditions.Snapshot
}

// mountainParams holds the path parameter of the single-mountain endpoint.
type mountainParams struct {
	Name string `validate:"required,max=64"`
}

// canonical accepts "mount-snow", "Mount_Snow" and "MOUNT_SNOW" alike.
func (m mountainParams) canonical() string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(m.Name), "-", "_"))
}

// latest writes the unavailable response itself and reports ok=false when no
// snapshot can be served. The query path never fails with a 5xx other than 503.
func latest(c *fiber.Ctx, pipeline Pipeline) (conditions.Snapshot, bool, error) {
	snapshot, err := pipeline.Latest(c.UserContext())
	if err == nil {
		return snapshot, true, nil
	}

	msg := errNoData
	if !errors.Is(err, store.ErrNotFound) {
		msg = "snapshot unavailable"
	}
	return conditions.Snapshot{}, false, c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"ok":    false,
		"error": msg,
	})
}

func authorized(c *fiber.Ctx, secret string) bool {
	if secret == "" {
		return true
	}

	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		if matches(strings.TrimPrefix(auth, "Bearer "), secret) {
			return true
		}
	}
	if q := c.Query("secret"); q != "" {
		return matches(q, secret)
	}
	return false
}

func matches(provided, secret string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) == 1
}
