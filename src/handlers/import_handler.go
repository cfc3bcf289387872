// src/handlers/import_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/security/validation"
	"github.com/username/spendlens/src/services"
	"github.com/username/spendlens/src/utils"
)

type ImportHandler struct {
	importService  services.ImportService
	maxUploadBytes int64
	importRoot     string
}

// NewImportHandler builds the import handler. A non-empty importRoot confines
// HandleIngest to files under that directory.
func NewImportHandler(service services.ImportService, maxUploadBytes int64, importRoot string) *ImportHandler {
	return &ImportHandler{
		importService:  service,
		maxUploadBytes: maxUploadBytes,
		importRoot:     importRoot,
	}
}

type ingestRequest struct {
	FilePath  string `json:"filePath"`
	AccountID int64  `json:"accountId"`
}

// HandleIngest imports a statement file that already sits on the server's disk.
func (h *ImportHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.FilePath = strings.TrimSpace(req.FilePath)
	if req.FilePath == "" || req.AccountID <= 0 {
		utils.SendJSONError(w, "filePath and accountId are required", http.StatusBadRequest)
		return
	}
	if !withinRoot(h.importRoot, req.FilePath) {
		logger.FromContext(r.Context()).Warn("Ingest path outside import root", "path", req.FilePath, "root", h.importRoot)
		utils.SendJSONError(w, "filePath is outside the import directory", http.StatusForbidden)
		return
	}

	summary, err := h.importService.Ingest(r.Context(), req.FilePath, req.AccountID)
	if err != nil {
		sendServiceError(w, r, err, "import statement")
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

// HandleUpload imports a statement sent as the multipart "file" field.
func (h *ImportHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	maxMB := h.maxUploadBytes / (1024 * 1024)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadBytes)
		utils.SendJSONError(w, fmt.Sprintf("failed to read upload or file too large (max %d MB)", maxMB), http.StatusBadRequest)
		return
	}

	accountID, err := strconv.ParseInt(r.FormValue("account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		utils.SendJSONError(w, "account_id is required", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "failed to retrieve file from request, use the 'file' field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadBytes {
		log.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", h.maxUploadBytes)
		utils.SendJSONError(w, fmt.Sprintf("file too large (max %d MB)", maxMB), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		log.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateUploadContent(file); err != nil {
		log.Warn("Upload content rejected", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Info("Processing upload", "filename", fileHeader.Filename, "accountID", accountID, "size", fileHeader.Size)
	summary, err := h.importService.IngestUpload(r.Context(), file, fileHeader.Filename, accountID)
	if err != nil {
		sendServiceError(w, r, err, "import upload")
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (h *ImportHandler) HandleListImports(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryID(r, "account_id")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	batches, err := h.importService.ListImports(r.Context(), accountID)
	if err != nil {
		sendServiceError(w, r, err, "list imports")
		return
	}
	utils.WriteJSON(w, http.StatusOK, batches)
}

// withinRoot reports whether path resolves to root or below it. An empty root
// allows any path.
func withinRoot(root, path string) bool {
	if root == "" {
		return true
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
