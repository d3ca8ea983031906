package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/bio-photo/internal/advisor"
	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/catalog"
	"github.com/i474232898/bio-photo/internal/weather"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"fmt2": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"fmt4": func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) },
	"pct":  func(v float64) string { return strconv.FormatFloat(v*100, 'f', 0, 64) + "%" },
	"add1": func(i int) int { return i + 1 },
	"join": strings.Join,
}

var pages = map[string]*template.Template{
	"recommendations": parsePage("recommendations.html"),
	"calculator":      parsePage("calculator.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.New("layout.html").
		Funcs(templateFuncs).
		ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// pageData is shared by every server-rendered page.
type pageData struct {
	Title      string
	City       string
	Mode       weather.Mode
	Currency   string
	Fruit      string
	PanelSize  string
	Category   string
	Fruits     []catalog.Fruit
	Categories []catalog.PanelCategory

	Recommend *advisor.RecommendResult
	Calculate *advisor.CalculateResult
	Error     *errorBody
}

func (h *handlers) recommendationsPage(c *fiber.Ctx) error {
	data := pageData{Title: "Fruit recommendations", City: cityParam(c)}
	if data.City == "" {
		return render(c, "recommendations", fiber.StatusOK, data)
	}

	var q recommendationsQuery
	if err := q.bind(c); err != nil {
		return renderError(c, "recommendations", data, err)
	}
	mode, err := requestMode(c, c.Query("mock"))
	if err != nil {
		return renderError(c, "recommendations", data, err)
	}
	data.Currency = q.Currency

	res, err := h.deps.Advisor.Recommend(c.UserContext(), advisor.RecommendRequest{
		City:     q.City,
		Mode:     mode,
		TopN:     q.TopN,
		Currency: q.Currency,
	})
	if err != nil {
		return renderError(c, "recommendations", data, err)
	}
	data.Mode = res.Mode
	data.Recommend = &res
	return render(c, "recommendations", fiber.StatusOK, data)
}

func (h *handlers) calculatorPage(c *fiber.Ctx) error {
	cat := h.deps.Advisor.Catalog()
	data := pageData{
		Title:      "Energy calculator",
		City:       cityParam(c),
		Fruit:      strings.TrimSpace(c.Query("fruit")),
		PanelSize:  strings.TrimSpace(c.Query("panel_size")),
		Category:   strings.TrimSpace(c.Query("device_category")),
		Currency:   strings.TrimSpace(c.Query("currency")),
		Fruits:     cat.List(),
		Categories: cat.PanelCategories(),
	}
	if data.City == "" {
		return render(c, "calculator", fiber.StatusOK, data)
	}

	body := calculateBody{
		City:           data.City,
		Fruit:          data.Fruit,
		DeviceCategory: data.Category,
		Currency:       data.Currency,
	}
	if data.PanelSize != "" {
		size, err := strconv.ParseFloat(data.PanelSize, 64)
		if err != nil {
			return renderError(c, "calculator", data, apperr.InvalidArgument("panel_size must be a number, got %q", data.PanelSize))
		}
		body.PanelSize = size
	}
	body.trim()
	if err := validate.Struct(body); err != nil {
		return renderError(c, "calculator", data, apperr.InvalidArgument("%v", err))
	}

	mode, err := requestMode(c, c.Query("mock"))
	if err != nil {
		return renderError(c, "calculator", data, err)
	}

	res, err := h.deps.Advisor.Calculate(c.UserContext(), body.toRequest(mode))
	if err != nil {
		return renderError(c, "calculator", data, err)
	}
	data.Mode = res.Mode
	data.Calculate = &res
	return render(c, "calculator", fiber.StatusOK, data)
}

func renderError(c *fiber.Ctx, page string, data pageData, err error) error {
	code, body := describeError(err)
	data.Error = &body
	return render(c, page, code, data)
}

func render(c *fiber.Ctx, page string, status int, data pageData) error {
	tmpl, ok := pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}
