package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header is the response header carrying the request id.
const Header = "X-Ray-ID"

// New returns a middleware that assigns every request a ray id, reusing one
// supplied by the client.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals("ray_id", id)
		c.Set(Header, id)
		return c.Next()
	}
}
