package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
	"github.com/timedrop/tdadmin/internal/service"
)

// MarketService defines the methods the market handler requires.
type MarketService interface {
	Page(ctx context.Context, p service.Params) (listview.Page[domain.Market], error)
	Create(ctx context.Context, form domain.MarketForm, img *service.ImageUpload) (domain.Market, error)
	SetStatus(ctx context.Context, id string, status domain.MarketStatus) (domain.Market, error)
	Resolve(ctx context.Context, id, outcome string) error
}

// MarketHandler serves the markets screen.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{markets: markets, logger: logHandler(logger, "markets")}
}

// ListMarkets returns one filtered page of markets.
// GET /api/markets?q=&status=&category=&page=&page_size=
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	page, err := h.markets.Page(r.Context(), parseParams(r, "status", "category"))
	writePage(w, r, h.logger, "list markets", page, err)
}

// marketRequest is the JSON form of a market creation.
type marketRequest struct {
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsDaily   *bool     `json:"isDaily,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	ImageHint string    `json:"imageHint,omitempty"`
}

// CreateMarket creates a market from a JSON body, or from a multipart form
// when an image file is attached under "image".
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var (
		form domain.MarketForm
		img  *service.ImageUpload
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var err error
		form, img, err = parseMarketForm(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var req marketRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		form = domain.MarketForm{
			Title:     req.Title,
			Category:  req.Category,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			IsDaily:   req.IsDaily,
			ImageURL:  req.ImageURL,
			ImageHint: req.ImageHint,
		}
	}

	m, err := h.markets.Create(r.Context(), form, img)
	if err != nil {
		writeServiceError(w, r, h.logger, "create market", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func parseMarketForm(w http.ResponseWriter, r *http.Request) (domain.MarketForm, *service.ImageUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxImageSize+maxBodyBytes)
	if err := r.ParseMultipartForm(domain.MaxImageSize + maxBodyBytes); err != nil {
		return domain.MarketForm{}, nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	form := domain.MarketForm{
		Title:     r.FormValue("title"),
		Category:  r.FormValue("category"),
		ImageHint: r.FormValue("imageHint"),
	}
	var err error
	if form.StartDate, err = parseFormTime(r.FormValue("startDate")); err != nil {
		return form, nil, fmt.Errorf("startDate: %w", err)
	}
	if form.EndDate, err = parseFormTime(r.FormValue("endDate")); err != nil {
		return form, nil, fmt.Errorf("endDate: %w", err)
	}
	if v := r.FormValue("isDaily"); v != "" {
		daily, err := strconv.ParseBool(v)
		if err != nil {
			return form, nil, fmt.Errorf("isDaily: %w", err)
		}
		form.IsDaily = &daily
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return form, nil, nil
	}
	if err != nil {
		return form, nil, fmt.Errorf("image: %w", err)
	}
	// The multipart temp file lives until the request ends.
	return form, &service.ImageUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        file,
	}, nil
}

// parseFormTime accepts RFC 3339 and the datetime-local format of HTML
// forms. An empty value is the zero time.
func parseFormTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", s)
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetMarketStatus changes a market's status (Open, closed or archieve).
// POST /api/markets/{id}/status
func (h *MarketHandler) SetMarketStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.markets.SetStatus(r.Context(), pathParam(r, "id"), domain.MarketStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, h.logger, "set market status", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type resolveRequest struct {
	Outcome string `json:"outcome"`
}

// ResolveMarket settles a market.
// POST /api/markets/{id}/resolve
func (h *MarketHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := pathParam(r, "id")
	if err := h.markets.Resolve(r.Context(), id, req.Outcome); err != nil {
		writeServiceError(w, r, h.logger, "resolve market", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.MarketStatusResolved), "id": id})
}
