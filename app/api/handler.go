package api

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Adivarma1619/insurance-rag-bot/extract"
	"github.com/Adivarma1619/insurance-rag-bot/service"
	"github.com/Adivarma1619/insurance-rag-bot/types"
)

// defaultKnowledgeFile is what /ingest builds from when no file is named.
const defaultKnowledgeFile = "knowledge.pdf"

type RequestHandler struct {
	svc      *service.Service
	registry *extract.Registry
	dataDir  string
}

func NewRequestHandler(svc *service.Service, registry *extract.Registry, dataDir string) *RequestHandler {
	return &RequestHandler{
		svc:      svc,
		registry: registry,
		dataDir:  dataDir,
	}
}

// HandleChat answers one question against the current knowledge base.
func (h *RequestHandler) HandleChat(c *fiber.Ctx) error {
	var params types.ChatParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	answer, sources, err := h.svc.Answer(c.Context(), params.Message)
	if err != nil {
		return err
	}

	return c.JSON(types.ChatResponse{
		Answer:    answer,
		Sources:   sources,
		Timestamp: time.Now(),
	})
}

// HandleIngest builds the knowledge base from the default knowledge file.
func (h *RequestHandler) HandleIngest(c *fiber.Ctx) error {
	path := filepath.Join(h.dataDir, defaultKnowledgeFile)
	if _, err := os.Stat(path); err != nil {
		return ErrNotFound(defaultKnowledgeFile, "knowledge file")
	}

	count, err := h.svc.Ingest(c.Context(), path)
	if err != nil {
		return err
	}

	return c.JSON(types.IngestResponse{Status: "success", ChunksCount: count})
}

// HandleUseFile builds the knowledge base from a named file in the data dir.
func (h *RequestHandler) HandleUseFile(c *fiber.Ctx) error {
	filename := filepath.Base(c.Params("filename"))
	if filename == "" || filename == "." {
		return ErrBadRequest()
	}

	path := filepath.Join(h.dataDir, filename)
	if _, err := os.Stat(path); err != nil {
		return ErrNotFound(filename, "file")
	}

	count, err := h.svc.Ingest(c.Context(), path)
	if err != nil {
		return err
	}

	return c.JSON(types.IngestResponse{Status: "success", ChunksCount: count})
}

// HandleUpload saves one supported file into the data dir.
func (h *RequestHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	filename := filepath.Base(file.Filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if !h.registry.Supported(ext) {
		return types.Ef(types.StageExtract, types.KindInput,
			"unsupported format %q, supported: %s", ext, strings.Join(h.registry.SupportedExtensions(), ", "))
	}

	path := filepath.Join(h.dataDir, filename)
	if err := c.SaveFile(file, path); err != nil {
		return err
	}

	return c.JSON(types.UploadResponse{
		Status:   "success",
		Filename: filename,
		Message:  fmt.Sprintf("Uploaded %q. Select it and build the knowledge base.", filename),
	})
}

// HandleFiles lists every supported file currently in the data dir.
func (h *RequestHandler) HandleFiles(c *fiber.Ctx) error {
	entries, err := os.ReadDir(h.dataDir)
	if err != nil {
		return err
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if h.registry.Supported(filepath.Ext(entry.Name())) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	return c.JSON(types.FileListResponse{Files: files})
}
