// Package webapp serves the local demo interface for the genetic
// health coach: upload an annotated VCF, pick subjects, read the report.
package webapp

import (
	"fmt"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/helixworks/go-agents/internal/log"
	"github.com/helixworks/go-agents/pkg/coach"
	"github.com/helixworks/go-agents/pkg/vcf"
)

// AnalyzeResponse is the JSON payload returned by the API endpoint.
type AnalyzeResponse struct {
	Subjects    []coach.SubjectReport `json:"subjects"`
	GeneSummary *vcf.Result           `json:"gene_summary"`
}

// Server is the demo web server.
type Server struct {
	app  *fiber.App
	addr string
}

// Config holds the server settings.
type Config struct {
	Host string
	Port string
}

// NewServer creates the demo server.
func NewServer(cfg Config) *Server {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8000"
	}

	s := &Server{addr: cfg.Host + ":" + cfg.Port}

	app := fiber.New(fiber.Config{
		AppName:               "Genetic Health Coach Demo",
		DisableStartupMessage: true,
		BodyLimit:             32 * 1024 * 1024,
	})
	app.Use(cors.New())

	app.Get("/", s.handleIndex)
	app.Get("/index.html", s.handleIndex)
	app.Get("/healthz", s.handleHealth)
	app.Post("/analyze", s.handleAnalyzeHTML)
	app.Post("/api/analyze", s.handleAnalyzeJSON)

	s.app = app
	return s
}

// Start runs the server. It blocks until Shutdown is called.
func (s *Server) Start() error {
	log.Info("demo server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(renderFullPage(""))
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func (s *Server) handleAnalyzeHTML(c *fiber.Ctx) error {
	report, err := s.analyze(c)
	if err != nil {
		return err
	}

	body := "<h2>Results</h2>" + renderGeneSummary(report.GeneSummary)
	for i := range report.Subjects {
		body += renderSubjectHTML(&report.Subjects[i])
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(renderFullPage(body))
}

func (s *Server) handleAnalyzeJSON(c *fiber.Ctx) error {
	report, err := s.analyze(c)
	if err != nil {
		return err
	}
	return c.JSON(AnalyzeResponse{
		Subjects:    report.Subjects,
		GeneSummary: report.GeneSummary,
	})
}

func (s *Server) analyze(c *fiber.Ctx) (*coach.Report, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "no VCF file was uploaded")
	}
	if fileHeader.Size == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "the VCF file is empty")
	}

	genes, err := parseUpload(fileHeader)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("failed to parse VCF: %v", err))
	}

	form, err := c.MultipartForm()
	var subjects []string
	if err == nil && form != nil {
		subjects = form.Value["subjects"]
	}

	report, err := coach.BuildReport(genes, subjects)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	log.Info("analyzed upload",
		"file", fileHeader.Filename,
		"variants", genes.TotalVariants,
		"subjects", report.RequestedSubjects)
	return report, nil
}

func parseUpload(fileHeader *multipart.FileHeader) (*vcf.Result, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return vcf.ParseReader(f, fileHeader.Filename)
}
