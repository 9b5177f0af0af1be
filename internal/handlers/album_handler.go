package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"albumportal/internal/logging"
	"albumportal/internal/middleware"
	"albumportal/internal/models"
	"albumportal/internal/repositories"
	"albumportal/internal/services"

	"github.com/gofiber/fiber/v2"
)

const lastLoginLayout = "Jan 02, 2006 at 03:04 PM"

// AlbumHandler serves the album pages.
type AlbumHandler struct {
	albums     *services.AlbumService
	accounts   *services.AccountService
	session    *middleware.Session
	appVersion string
	log        logging.Logger
}

// NewAlbumHandler creates a new AlbumHandler.
func NewAlbumHandler(albums *services.AlbumService, accounts *services.AccountService,
	session *middleware.Session, appVersion string, log logging.Logger) *AlbumHandler {
	return &AlbumHandler{
		albums:     albums,
		accounts:   accounts,
		session:    session,
		appVersion: appVersion,
		log:        log.With("component", "album_handler"),
	}
}

// RegisterRoutes registers the album routes with the Fiber app.
func (h *AlbumHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleHome)
	router.Get("/main", middleware.RequireLogin(), h.HandleMain)
	router.Get("/random_album_thumbs", h.HandleRandomThumbnails)
}

// HandleHome sends users to the album page or the login page.
func (h *AlbumHandler) HandleHome(c *fiber.Ctx) error {
	if middleware.Username(c) != "" {
		return c.Redirect("/main")
	}
	return c.Redirect("/login")
}

// HandleMain renders the curated home view and, when q or year is given,
// the search results.
func (h *AlbumHandler) HandleMain(c *fiber.Ctx) error {
	ctx := c.UserContext()
	username := middleware.Username(c)

	account, err := h.accounts.Account(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		// The account was deleted while the session was alive.
		h.session.End(c)
		return c.Redirect("/login")
	}
	if err != nil {
		return fail(c, h.log, err)
	}

	view, err := h.albums.HomeView(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}

	body := fiber.Map{
		"username":    account.Username,
		"app_version": h.appVersion,
		"last_login":  lastLoginBanner(account),
		"home":        view,
	}

	var notices []middleware.Notice
	query, yearSpec := strings.TrimSpace(c.Query("q")), strings.TrimSpace(c.Query("year"))
	if query != "" || yearSpec != "" {
		result, err := h.search(ctx, query, yearSpec)
		if err != nil {
			return fail(c, h.log, err)
		}
		notices = append(notices, danger(result.Warnings...)...)
		if result.Performed && result.Total == 0 {
			notices = append(notices, middleware.Notice{Level: middleware.LevelInfo, Message: "No albums found."})
		}
		body["search"] = result
	}
	return respond(c, fiber.StatusOK, body, notices...)
}

func (h *AlbumHandler) search(ctx context.Context, query, yearSpec string) (*models.SearchResult, error) {
	result, err := h.albums.Search(ctx, query, yearSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to search albums: %w", err)
	}
	return result, nil
}

func lastLoginBanner(account *models.Account) string {
	if account.LastLoginTime == nil {
		return ""
	}
	ip := account.LastLoginIP
	if ip == "" {
		ip = "unknown IP"
	}
	return fmt.Sprintf("Last login: %s from %s", account.LastLoginTime.In(time.UTC).Format(lastLoginLayout), ip)
}

// HandleRandomThumbnails returns a shuffled sample of album thumbnails, or an
// empty list without a session.
func (h *AlbumHandler) HandleRandomThumbnails(c *fiber.Ctx) error {
	if middleware.Username(c) == "" {
		return c.JSON([]models.Thumbnail{})
	}
	thumbs, err := h.albums.RandomThumbnails(c.UserContext())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(thumbs)
}
