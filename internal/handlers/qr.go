package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/skip2/go-qrcode"
	"github.com/trentd187/spot-the-same/internal/config"
	"github.com/trentd187/spot-the-same/internal/game"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

// JoinURL is the link a join QR code opens.
func JoinURL(cfg *config.Config, joinCode string) string {
	return strings.TrimRight(cfg.PublicURL, "/") + "/join/" + joinCode
}

// GameQR returns a handler for GET /api/v1/games/:id/qr?size=N.
// It responds with a PNG QR code of the game's join link, so players at the
// same table can scan their way in.
func GameQR(svc *game.Service, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gameID, ok := gameIDParam(c)
		if !ok {
			return badRequest(c, "invalid game ID")
		}

		g, err := svc.GetGame(c.UserContext(), gameID)
		if err != nil {
			return writeError(c, err)
		}

		size := c.QueryInt("size", defaultQRSize)
		if size < minQRSize || size > maxQRSize {
			return badRequest(c, "size must be between 128 and 1024")
		}

		png, err := qrcode.Encode(JoinURL(cfg, g.JoinCode), qrcode.Medium, size)
		if err != nil {
			return writeError(c, err)
		}

		c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
		c.Type("png")
		return c.Send(png)
	}
}
