package middleware

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
)

// FlashCookie carries notices across a redirect.
const FlashCookie = "portal_flash"

// Notice levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

// Notice is a one-shot message for the next page.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Flash queues notices for the next request, keeping any still pending.
func Flash(c *fiber.Ctx, notices ...Notice) {
	pending := append(decodeNotices(c.Cookies(FlashCookie)), notices...)
	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     FlashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// TakeFlash returns the pending notices and clears them. It never returns nil.
func TakeFlash(c *fiber.Ctx) []Notice {
	value := c.Cookies(FlashCookie)
	if value == "" {
		return []Notice{}
	}
	expire(c, FlashCookie)
	return decodeNotices(value)
}

// expire tells the client to drop the cookie set on path "/".
func expire(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func decodeNotices(value string) []Notice {
	notices := []Notice{}
	if value == "" {
		return notices
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return notices
	}
	if err := json.Unmarshal(raw, &notices); err != nil || notices == nil {
		return []Notice{}
	}
	return notices
}
